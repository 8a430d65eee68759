package preview

import (
	"net/url"
	"strings"

	"github.com/big-blue22/keizibann/internal/models"
)

// example.com posts are demo content and never hit the network
func isMockHost(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	return host == "example.com" || strings.HasSuffix(host, ".example.com")
}

var mockPreviews = map[string]models.PreviewData{
	"https://example.com/ai-trends": {
		Title:       "AI技術の最新トレンド",
		Description: "AI技術の最新トレンドについて詳しく解説している記事です。",
		Image:       "https://via.placeholder.com/600x315/6366f1/ffffff?text=AI+Trends",
		SiteName:    "Example Tech Blog",
	},
	"https://example.com/react-tips": {
		Title:       "React開発のベストプラクティス",
		Description: "React開発で役立つ実践的なテクニック集です。",
		Image:       "https://via.placeholder.com/600x315/06b6d4/ffffff?text=React+Tips",
		SiteName:    "Example Tech Blog",
	},
	"https://example.com/database-design": {
		Title:       "データベース設計の基本",
		Description: "データベース設計の基本原則と実装のベストプラクティス。",
		Image:       "https://via.placeholder.com/600x315/10b981/ffffff?text=Database+Design",
		SiteName:    "Example Tech Blog",
	},
}

var defaultMockPreview = models.PreviewData{
	Title:       "サンプル記事",
	Description: "これはモックデータのサンプル記事です。",
	Image:       "https://via.placeholder.com/600x315/8b5cf6/ffffff?text=Sample+Article",
	SiteName:    "Example Site",
}

func mockPreview(rawURL string) *models.PreviewData {
	data, ok := mockPreviews[rawURL]
	if !ok {
		data = defaultMockPreview
	}
	data.URL = rawURL
	return &data
}
