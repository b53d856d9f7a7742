package errors

import (
	"errors"
	"fmt"
)

var (
	// Фатальные ошибки подготовки прогона
	ErrAuth              = fmt.Errorf("неверные учётные данные для bind")
	ErrUnreachable       = fmt.Errorf("LDAP-сервер недоступен")
	ErrSourceUnavailable = fmt.Errorf("источник участников недоступен")
	ErrRunInProgress     = fmt.Errorf("синхронизация для этого base DN уже выполняется")

	// Ошибки по отдельному участнику
	ErrMissingCredential = fmt.Errorf("missing credential")
	ErrInvalidMember     = fmt.Errorf("некорректная запись участника")
	ErrConstraint        = fmt.Errorf("нарушение ограничений каталога")

	// Причины отказа по полям; errors.Is(err, ErrInvalidMember) для них истинно
	ErrInvalidUserID   error = invalidMemberError("invalid user id")
	ErrMissingFullName error = invalidMemberError("missing full name")

	// Общие
	ErrNotFound = fmt.Errorf("запись не найдена")
)

type invalidMemberError string

func (e invalidMemberError) Error() string { return string(e) }

func (e invalidMemberError) Is(target error) bool { return target == ErrInvalidMember }

// FatalSetupError прерывает весь прогон до первого изменения в каталоге.
type FatalSetupError struct {
	Stage string
	Err   error
}

func (e *FatalSetupError) Error() string {
	return fmt.Sprintf("фатальная ошибка на этапе %q: %v", e.Stage, e.Err)
}

func (e *FatalSetupError) Unwrap() error { return e.Err }

func NewFatalSetupError(stage string, err error) error {
	return &FatalSetupError{Stage: stage, Err: err}
}

// IsFatal сообщает, должен ли прогон завершиться с ненулевым кодом.
func IsFatal(err error) bool {
	var fatal *FatalSetupError
	return errors.As(err, &fatal)
}

// Кастомные типы ошибок
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}
