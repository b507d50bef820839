package handler

import (
	"encoding/base64"
	"strconv"

	"github.com/rezkam/hearth/internal/domain"
)

// generatePageToken creates a pagination token from an offset value.
// Returns nil if there are no more pages.
func generatePageToken(offset int, hasMore bool) *string {
	if !hasMore {
		return nil
	}
	token := base64.URLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
	return &token
}

// parsePageToken decodes a pagination token to get the offset.
// An empty token is the first page.
func parsePageToken(token string) (int, error) {
	if token == "" {
		return 0, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return 0, domain.ErrInvalidPageToken
	}
	offset, err := strconv.Atoi(string(decoded))
	if err != nil || offset < 0 {
		return 0, domain.ErrInvalidPageToken
	}
	return offset, nil
}
