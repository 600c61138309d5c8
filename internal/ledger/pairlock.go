// Package ledger はメンターシップリクエストの台帳と状態遷移を提供する。
package ledger

import "sync"

// pairLock はペアキー単位の排他制御を提供する。
// 同一ペアに対するpropose/respondは直列化されるが、
// 異なるペアの操作は互いにブロックしない（グローバルロックは持たない）。
// エントリは参照カウントで管理し、待機者がいなくなった時点で破棄する。
type pairLock struct {
	mu      sync.Mutex
	entries map[string]*pairLockEntry
}

type pairLockEntry struct {
	mu   sync.Mutex
	refs int
}

// newPairLock はpairLockを生成する。
func newPairLock() *pairLock {
	return &pairLock{
		entries: make(map[string]*pairLockEntry),
	}
}

// lock は指定ペアキーのロックを獲得する。
// 戻り値のunlock関数でロックを解放する。
func (p *pairLock) lock(key string) (unlock func()) {
	p.mu.Lock()
	entry, ok := p.entries[key]
	if !ok {
		entry = &pairLockEntry{}
		p.entries[key] = entry
	}
	entry.refs++
	p.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		p.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(p.entries, key)
		}
		p.mu.Unlock()
	}
}

// size は現在管理されているエントリ数を返す。テスト用。
func (p *pairLock) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
