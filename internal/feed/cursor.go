// Package feed はメンティー向け候補メンターのページングフィードを提供する。
package feed

import (
	"sync"
	"time"
)

// cursor は1サブジェクトのフィード状態を保持する。
// offsetは候補ソース上の読み取り位置、seenは当該セッションで
// 提示済みの候補アカウントID集合。
// muにより同一サブジェクトの並行ページングを直列化する
// （2つのビューから同時にページングしても同じ候補を二重取得しない）。
type cursor struct {
	mu         sync.Mutex
	offset     int
	seen       map[string]struct{}
	lastAccess time.Time
}

// cursorTable はサブジェクトごとのカーソルを管理する。
// サブジェクト間のフィードは完全に独立しており、
// テーブル自体のロックはカーソルの取得・破棄の間のみ保持する。
// 最終アクセスからTTLを超えたカーソルはバックグラウンドで破棄され、
// 次回のacquireで先頭からの新しいカーソルが作られる。
type cursorTable struct {
	mu      sync.Mutex
	cursors map[string]*cursor

	cleanupInterval time.Duration
	stopCh          chan struct{}
}

// newCursorTable はcursorTableを生成する。
// バックグラウンドで放置カーソルのクリーンアップを開始する。
func newCursorTable(cleanupInterval time.Duration) *cursorTable {
	t := &cursorTable{
		cursors:         make(map[string]*cursor),
		cleanupInterval: cleanupInterval,
		stopCh:          make(chan struct{}),
	}

	go t.cleanupLoop()

	return t
}

// stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (t *cursorTable) stop() {
	close(t.stopCh)
}

// acquire はサブジェクトのカーソルを取得または作成する。
func (t *cursorTable) acquire(subjectID string) *cursor {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.cursors[subjectID]
	if !ok {
		c = &cursor{seen: make(map[string]struct{})}
		t.cursors[subjectID] = c
	}
	c.lastAccess = time.Now()
	return c
}

// reset はサブジェクトのカーソルを破棄する。
// 次回のacquireで先頭からの新しいカーソルが作られる。
func (t *cursorTable) reset(subjectID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.cursors, subjectID)
}

// count は現在管理されているカーソルのエントリ数を返す。
// テスト用。
func (t *cursorTable) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.cursors)
}

// cleanupLoop はバックグラウンドで放置カーソルを定期的にクリーンアップする。
func (t *cursorTable) cleanupLoop() {
	ticker := time.NewTicker(t.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.cleanup()
		case <-t.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻がcleanupIntervalの2倍を超えたカーソルを削除する。
// 放置されたカーソルの破棄はリセットと等価であり、
// 同じサブジェクトが戻ってきた場合は先頭からフィードが再開される。
func (t *cursorTable) cleanup() {
	ttl := t.cleanupInterval * 2

	now := time.Now()

	t.mu.Lock()
	for subjectID, c := range t.cursors {
		if now.Sub(c.lastAccess) > ttl {
			delete(t.cursors, subjectID)
		}
	}
	t.mu.Unlock()
}
