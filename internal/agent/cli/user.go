package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IvanChernomyrdin/go-user-accounts/internal/agent/api"
)

// NewUserCmd создаёт группу команд для работы с пользователями.
func NewUserCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Операции с пользователями",
	}

	cmd.AddCommand(newUserGetCmd(app))
	cmd.AddCommand(newUserCreateCmd(app))
	cmd.AddCommand(newUserUpdateCmd(app))
	cmd.AddCommand(newUserDeleteCmd(app))

	return cmd
}

// newUserGetCmd печатает пользователя как JSON. Токен не нужен.
//
//	accounts user get <id>
func newUserGetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Показать пользователя",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := NewAPIClient(app.ServerURL).GetUser(args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(u)
		},
	}
}

// userFieldFlags регистрирует флаги полей пользователя.
func userFieldFlags(cmd *cobra.Command, f *api.UserFields) {
	cmd.Flags().StringVar(&f.Email, "email", "", "email")
	cmd.Flags().StringVar(&f.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&f.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&f.PhotoPath, "photo", "", "path to photo file (jpeg, png, jpg, gif; max 2048 KB)")
}

// newUserCreateCmd создаёт пользователя от имени залогиненного.
//
//	accounts user create --email bob@example.com --first-name Bob --last-name Lee [--photo ./bob.png]
func newUserCreateCmd(app *App) *cobra.Command {
	var (
		fields api.UserFields
		pw     passwordFlags
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Создать пользователя",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := app.accessToken()
			if err != nil {
				return err
			}
			password, err := pw.resolve(cmd)
			if err != nil {
				return err
			}
			fields.Password = password

			resp, err := NewAPIClient(app.ServerURL).CreateUser(fields, token)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return nil
		},
	}

	userFieldFlags(cmd, &fields)
	pw.register(cmd, "password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("first-name")
	cmd.MarkFlagRequired("last-name")

	return cmd
}

// newUserUpdateCmd обновляет пользователя. Пароль меняется, только если передан --password.
//
//	accounts user update <id> --email bob@example.com --first-name Bob --last-name Lee
func newUserUpdateCmd(app *App) *cobra.Command {
	var fields api.UserFields

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Обновить пользователя",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := app.accessToken()
			if err != nil {
				return err
			}

			resp, err := NewAPIClient(app.ServerURL).UpdateUser(args[0], fields, token)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return nil
		},
	}

	userFieldFlags(cmd, &fields)
	cmd.Flags().StringVar(&fields.Password, "password", "", "new password (если не указан, пароль не меняется)")

	return cmd
}

// newUserDeleteCmd удаляет пользователя.
//
//	accounts user delete <id>
func newUserDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Удалить пользователя",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := app.accessToken()
			if err != nil {
				return err
			}

			resp, err := NewAPIClient(app.ServerURL).DeleteUser(args[0], token)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return nil
		},
	}
}
