package cache

import (
	"fmt"
	"time"
)

const (
	TagVocabularyKey = "tags:all"
	UserKeyPrefix    = "user:%d"
)

const (
	// TagTTL is generous because the vocabulary is immutable reference
	// data; new tags appear only on redeploys.
	TagTTL  = 30 * time.Minute
	UserTTL = 5 * time.Minute
)

func UserKey(userID int) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}
