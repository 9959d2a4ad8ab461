// Package cli реализует командный интерфейс (CLI) клиента сервера учётных записей.
//
// Пакет отвечает за:
//   - определение root-команды и набора подкоманд;
//   - разбор аргументов и флагов командной строки;
//   - загрузку локальных учётных данных (access токен) из конфигурационного файла;
//   - выполнение команд и вывод результата пользователю.
//
// Точка входа пакета: функция Execute.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/IvanChernomyrdin/go-user-accounts/internal/agent/config"
)

// defaultServerURL: адрес сервера по умолчанию.
const defaultServerURL = "http://127.0.0.1:8080"

// App содержит состояние CLI-приложения, разделяемое между командами.
type App struct {
	// ServerURL: базовый URL сервера (например, "http://127.0.0.1:8080").
	ServerURL string

	// CredsPath: путь к файлу с сохранёнными учётными данными.
	CredsPath string
	// Creds: загруженные учётные данные из файла конфигурации.
	Creds *config.Credentials
}

// accessToken возвращает сохранённый токен или ошибку с подсказкой выполнить login.
func (a *App) accessToken() (string, error) {
	if !a.Creds.LoggedIn() {
		return "", errors.New("not logged in, run: accounts login")
	}
	return a.Creds.AccessToken, nil
}

// NewRootCmd создаёт root-команду CLI и регистрирует подкоманды.
//
// buildVersion и buildDate используются для вывода информации о сборке (команда version).
// В PersistentPreRunE определяется путь к файлу учётных данных и загружается сохранённый токен.
func NewRootCmd(buildVersion, buildDate string) *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "accounts CLI: клиент сервиса учётных записей пользователей",
		Long: `accounts CLI.

Команды:
  register     Регистрация нового пользователя
  login        Логин (получить access токен)
  logout       Удалить сохранённый токен
  user get     Показать пользователя
  user create  Создать пользователя (нужен login)
  user update  Обновить пользователя (нужен login)
  user delete  Удалить пользователя (нужен login)
  version      Версия и дата сборки

Примеры:

Регистрация:
  accounts register --email test@example.com --first-name Ann --last-name Lee

Логин:
  accounts login --email test@example.com
  (пароль запрашивается из терминала, токен сохраняется в локальном конфиге)

Создание с фото:
  accounts user create --email bob@example.com --first-name Bob --last-name Lee --photo ./bob.png
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			p, err := config.DefaultPath()
			if err != nil {
				return err
			}
			app.CredsPath = p

			creds, err := config.Load(app.CredsPath)
			if err != nil {
				return err
			}
			app.Creds = creds

			// сервер из флага важнее сохранённого
			if !cmd.Flags().Changed("server") && creds.ServerURL != "" {
				app.ServerURL = creds.ServerURL
			}
			return nil
		},
	}

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().StringVar(&app.ServerURL, "server", defaultServerURL, "server base URL")

	cmd.AddCommand(NewRegisterCmd(app))
	cmd.AddCommand(NewLoginCmd(app))
	cmd.AddCommand(NewLogoutCmd(app))
	cmd.AddCommand(NewUserCmd(app))
	cmd.AddCommand(NewVersionCmd(buildVersion, buildDate))

	return cmd
}

// Execute запускает обработку CLI-команд.
//
// При ошибке выполнения команды сообщение выводится в stderr, после чего процесс
// завершается с кодом 1 (os.Exit(1)).
func Execute(buildVersion, buildDate string) {
	if err := NewRootCmd(buildVersion, buildDate).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
