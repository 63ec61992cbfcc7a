package application

import (
	"strconv"

	domainerrors "gatekeeper/contexts/identity-access/account-service/domain/errors"
)

// Token subjects carry the numeric identity id as a string.

func formatSubject(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func parseSubject(subject string) (int64, error) {
	userID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, domainerrors.ErrInvalidRequest
	}
	return userID, nil
}
