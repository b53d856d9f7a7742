package secrets

import (
	"errors"
	"fmt"

	ksm "github.com/keeper-security/secrets-manager-go/core"
)

// KeeperPassword достаёт пароль из записи Keeper Secrets Manager.
// configBase64 - конфиг приложения KSM (KSM_CONFIG_BASE64).
func KeeperPassword(configBase64, recordUID string) (string, error) {
	if configBase64 == "" || recordUID == "" {
		return "", errors.New("не задан конфиг KSM или UID записи")
	}

	sm := ksm.NewSecretsManager(&ksm.ClientOptions{
		Config: ksm.NewMemoryKeyValueStorage(configBase64),
	})

	records, err := sm.GetSecrets([]string{recordUID})
	if err != nil {
		return "", fmt.Errorf("ошибка чтения записи %s из KSM: %w", recordUID, err)
	}
	if len(records) == 0 {
		return "", fmt.Errorf("запись %s не найдена или не расшарена приложению KSM", recordUID)
	}

	password := records[0].Password()
	if password == "" {
		return "", fmt.Errorf("в записи %s нет пароля", recordUID)
	}
	return password, nil
}
