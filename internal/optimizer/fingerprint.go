package optimizer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/cheonmabigo/fintext-nlu-go/internal/domain/fintext"
	"github.com/cheonmabigo/fintext-nlu-go/internal/textnorm"
)

// Fingerprint 는 (질의, 컨텍스트) 쌍의 캐시 키를 만든다.
// 같은 문장이라도 사용자/예산/거래수/응답 스타일이 다르면 키가 달라야 한다.
func Fingerprint(query string, userCtx *fintext.UserContext) string {
	normalized := textnorm.Normalize(query)
	sum := sha256.Sum256([]byte(normalized))
	key := hex.EncodeToString(sum[:16])

	if userCtx == nil {
		return key
	}

	budget := int64(0)
	if userCtx.MonthlyBudget != nil {
		budget = *userCtx.MonthlyBudget
	}
	summary := fmt.Sprintf("%s|%d|%d|%s",
		userCtx.UserID,
		budget,
		len(userCtx.RecentTransactions),
		userCtx.Preferences.ResponseStyle,
	)
	ctxSum := sha256.Sum256([]byte(summary))
	return key + "-" + hex.EncodeToString(ctxSum[:8])
}
