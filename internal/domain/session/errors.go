package session

import "errors"

var (
	// ErrSessionNotFound セッションが見つからない
	ErrSessionNotFound = errors.New("session not found")
	// ErrStepMismatch 現在のステップと異なる項目を設定しようとした
	ErrStepMismatch = errors.New("step mismatch")
	// ErrAlreadyComplete 全項目の収集が完了している
	ErrAlreadyComplete = errors.New("session already complete")
)
