package main

import (
	"flag"
	"fmt"
	"io"

	"member2ldap/pkg/config"
	apperrors "member2ldap/pkg/errors"
	"member2ldap/pkg/secrets"
)

const usageLine = "Использование: member2ldap [флаги] SITE"

// cliOptions - то, что из командной строки не ложится в config.Config.
type cliOptions struct {
	password secrets.BindPasswordOptions
}

// parseFlags разбирает аргументы поверх конфига из окружения: флаги имеют приоритет.
func parseFlags(args []string, cfg *config.Config, output io.Writer) (*cliOptions, error) {
	fs := flag.NewFlagSet("member2ldap", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintln(output, usageLine)
		fs.PrintDefaults()
	}

	bindDN := fs.String("D", cfg.LDAP.BindDN, "DN для bind")
	password := fs.String("w", "", "пароль для bind")
	prompt := fs.Bool("W", false, "запросить пароль для bind с терминала")
	url := fs.String("H", cfg.LDAP.URL, "адрес LDAP-сервера")
	baseDN := fs.String("b", cfg.LDAP.BaseDN, "base DN, под которым создаются записи")
	overwrite := fs.Bool("o", cfg.Sync.Overwrite, "перезаписывать существующие записи")
	verbose := fs.Bool("v", cfg.Sync.Verbose, "подробный вывод")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, apperrors.NewInvalidInputError("нужен ровно один аргумент SITE, получено %d", fs.NArg())
	}

	passwordSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "w" {
			passwordSet = true
		}
	})

	cfg.LDAP.BindDN = *bindDN
	cfg.LDAP.URL = *url
	cfg.LDAP.BaseDN = *baseDN
	cfg.Sync.Overwrite = *overwrite
	cfg.Sync.Verbose = *verbose
	cfg.Source.Site = fs.Arg(0)

	return &cliOptions{
		password: secrets.BindPasswordOptions{
			ForcePrompt:     *prompt,
			FromFlag:        *password,
			FlagSet:         passwordSet,
			FromEnv:         cfg.LDAP.BindPassword,
			KeeperConfig:    cfg.Keeper.ConfigBase64,
			KeeperRecordUID: cfg.Keeper.RecordUID,
		},
	}, nil
}
