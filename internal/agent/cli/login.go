package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IvanChernomyrdin/go-user-accounts/internal/agent/config"
)

// NewLoginCmd создаёт CLI-команду для входа пользователя в систему.
//
// Команда получает access токен и сохраняет его в локальный
// конфигурационный файл вместе с адресом сервера.
//
// Пример использования:
//
//	accounts login --email test@example.com --password StrongPass123
func NewLoginCmd(app *App) *cobra.Command {
	var (
		email string
		pw    passwordFlags
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Логин пользователя (получить access токен)",
		Long: `Логин пользователя.

Пример:
  accounts login --email test@example.com --password StrongPass123
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := pw.resolve(cmd)
			if err != nil {
				return err
			}

			c := NewAPIClient(app.ServerURL)
			resp, err := c.Login(email, password)
			if err != nil {
				return err
			}

			app.Creds.AccessToken = resp.Token
			app.Creds.Email = email
			app.Creds.ServerURL = app.ServerURL

			// сохраняем токен в локальный конфигурационный файл
			if err := config.Save(app.CredsPath, app.Creds); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "login ok (token saved)")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email for login")
	pw.register(cmd, "password for login")
	cmd.MarkFlagRequired("email")

	return cmd
}

// NewLogoutCmd удаляет сохранённый токен.
func NewLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Удалить сохранённый access токен",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Clear(app.CredsPath); err != nil {
				return err
			}
			app.Creds = &config.Credentials{}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}
