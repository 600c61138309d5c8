package security

import "testing"

func TestValidateURL(t *testing.T) {
	g := NewPictureURLGuard()

	tests := []struct {
		name    string
		rawURL  string
		wantErr bool
	}{
		{"空文字列は画像未設定として許可", "", false},
		{"公開httpsのURLは許可", "https://cdn.example.com/avatar.png", false},
		{"httpスキームは拒否", "http://cdn.example.com/avatar.png", true},
		{"ftpスキームは拒否", "ftp://cdn.example.com/avatar.png", true},
		{"localhostは拒否", "https://localhost/avatar.png", true},
		{"ループバックIPは拒否", "https://127.0.0.1/avatar.png", true},
		{"プライベートIP 10系は拒否", "https://10.0.0.5/avatar.png", true},
		{"プライベートIP 192.168系は拒否", "https://192.168.1.10/avatar.png", true},
		{"プライベートIP 172.16系は拒否", "https://172.16.0.1/avatar.png", true},
		{"クラウドメタデータIPは拒否", "https://169.254.169.254/latest/meta-data", true},
		{"IPv6ループバックは拒否", "https://[::1]/avatar.png", true},
		{"パブリックIPは許可", "https://93.184.216.34/avatar.png", false},
		{"ホストなしは拒否", "https:///avatar.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.ValidateURL(tt.rawURL)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.rawURL, err, tt.wantErr)
			}
		})
	}
}
