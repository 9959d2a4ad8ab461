package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IvanChernomyrdin/go-user-accounts/internal/agent/api"
)

// NewRegisterCmd создаёт CLI-команду для регистрации нового пользователя.
//
// Обязательные флаги --email, --first-name и --last-name.
// Пароль берётся из --password, из STDIN (--password-stdin) или запрашивается из терминала.
//
// Пример использования:
//
//	accounts register --email test@example.com --first-name Ann --last-name Lee
func NewRegisterCmd(app *App) *cobra.Command {
	var (
		fields api.UserFields
		pw     passwordFlags
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Регистрация нового пользователя",
		Long: `Регистрация нового пользователя на сервере.

Пример:
  accounts register --email test@example.com --first-name Ann --last-name Lee --password StrongPass123
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := pw.resolve(cmd)
			if err != nil {
				return err
			}
			fields.Password = password

			c := NewAPIClient(app.ServerURL)
			resp, err := c.Register(fields)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&fields.Email, "email", "", "email for registration")
	cmd.Flags().StringVar(&fields.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&fields.LastName, "last-name", "", "last name")
	pw.register(cmd, "password for registration")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("first-name")
	cmd.MarkFlagRequired("last-name")

	return cmd
}
