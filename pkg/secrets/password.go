// Package secrets определяет, откуда взять пароль для bind.
package secrets

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"
)

// BindPasswordOptions - все возможные источники пароля.
type BindPasswordOptions struct {
	// ForcePrompt - флаг -W
	ForcePrompt bool
	// FromFlag - значение -w, FlagSet - был ли флаг указан
	FromFlag string
	FlagSet  bool
	// FromEnv - LDAP_BIND_PASSWORD
	FromEnv         string
	KeeperConfig    string
	KeeperRecordUID string
}

type Resolver struct {
	Prompt func() (string, error)
	Keeper func(configBase64, recordUID string) (string, error)
	logger *zap.Logger
}

func NewResolver(logger *zap.Logger) *Resolver {
	return &Resolver{
		Prompt: promptTerminal,
		Keeper: KeeperPassword,
		logger: logger,
	}
}

// Resolve: -W, затем -w, затем окружение, затем Keeper, и в самом конце запрос с терминала.
func (r *Resolver) Resolve(opts BindPasswordOptions) (string, error) {
	switch {
	case opts.ForcePrompt:
		return r.Prompt()
	case opts.FlagSet:
		return opts.FromFlag, nil
	case opts.FromEnv != "":
		r.logger.Debug("[SECRETS] Пароль взят из LDAP_BIND_PASSWORD")
		return opts.FromEnv, nil
	}

	if opts.KeeperConfig != "" && opts.KeeperRecordUID != "" {
		password, err := r.Keeper(opts.KeeperConfig, opts.KeeperRecordUID)
		if err == nil {
			r.logger.Debug("[SECRETS] Пароль получен из Keeper", zap.String("record_uid", opts.KeeperRecordUID))
			return password, nil
		}
		r.logger.Warn("[SECRETS] Не удалось получить пароль из Keeper, будет запрошен ввод", zap.Error(err))
	}

	return r.Prompt()
}

func promptTerminal() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("пароль не задан, а stdin не является терминалом")
	}
	fmt.Fprint(os.Stderr, "Enter LDAP Password: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("ошибка чтения пароля: %w", err)
	}
	return string(raw), nil
}
