package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/demystify/internal"
	"github.com/spf13/cobra"
)

var (
	authUsername string
	authEmail    string
	authFullName string
)

var (
	userNameStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Width(12)
)

// registerCmd represents the register command
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	Long: `Create an account on the analysis service. Missing fields are asked for
interactively; the password is never taken from a flag.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		p := newPrompter(cmd)

		var form internal.RegisterForm
		var err error
		if form.FullName, err = p.valueOrPrompt(authFullName, "Full name"); err != nil {
			return err
		}
		if form.Username, err = p.valueOrPrompt(authUsername, "Username"); err != nil {
			return err
		}
		if form.Email, err = p.valueOrPrompt(authEmail, "Email"); err != nil {
			return err
		}
		if form.Password, err = p.Secret("Password"); err != nil {
			return err
		}
		if form.ConfirmPassword, err = p.Secret("Confirm password"); err != nil {
			return err
		}
		if err := internal.ValidateRegistration(form); err != nil {
			return err
		}

		var user *internal.User
		err = internal.ShowProgressWith(cmd.Context(), a.notifier, "auth", "Creating account", func() error {
			var regErr error
			user, regErr = a.session.Register(cmd.Context(), form.Request())
			return regErr
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Welcome, %s!\n", userNameStyle.Render(user.DisplayName()))
		if !user.EmailVerified {
			fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("A verification link was sent to %s. Run 'demystify verify-email <token>' once you have it.", form.Email)))
		}
		return nil
	}),
}

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in",
	Long:  `Sign in to the analysis service. The session is kept until you log out or the token expires.`,
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		p := newPrompter(cmd)

		username, err := p.valueOrPrompt(authUsername, "Username")
		if err != nil {
			return err
		}
		password, err := p.Secret("Password")
		if err != nil {
			return err
		}
		if username == "" || password == "" {
			return internal.ErrFieldsRequired
		}

		var user *internal.User
		err = internal.ShowProgressWith(cmd.Context(), a.notifier, "auth", "Signing in", func() error {
			var loginErr error
			user, loginErr = a.session.Login(cmd.Context(), username, password)
			return loginErr
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", userNameStyle.Render(user.DisplayName()))
		return nil
	}),
}

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the saved session",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		_, found, err := a.store.Get(internal.TokenKey)
		if err != nil {
			return err
		}
		a.session.Logout()
		if !found {
			fmt.Fprintln(cmd.OutOrStdout(), "You were not signed in")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
		return nil
	}),
}

// whoamiCmd represents the whoami command
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if err := a.session.Restore(cmd.Context()); err != nil {
			return fmt.Errorf("could not check the saved session: %w", err)
		}

		out := cmd.OutOrStdout()
		user := a.session.User()
		if !a.session.IsAuthenticated() || user == nil {
			fmt.Fprintln(out, "Not signed in")
			return nil
		}

		verified := warningStyle.Render("not verified")
		if user.EmailVerified {
			verified = successStyle.Render("verified")
		}
		fmt.Fprintln(out, userNameStyle.Render(user.DisplayName()))
		fmt.Fprintln(out, labelStyle.Render("Username")+user.Username)
		fmt.Fprintln(out, labelStyle.Render("Email")+fmt.Sprintf("%s (%s)", user.Email, verified))
		if user.CreatedAt != "" {
			fmt.Fprintln(out, labelStyle.Render("Member since")+user.CreatedAt)
		}
		return nil
	}),
}

// verifyEmailCmd represents the verify-email command
var verifyEmailCmd = &cobra.Command{
	Use:   "verify-email <token>",
	Short: "Confirm your email address with the token you received",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		resp, err := a.client.VerifyEmail(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		msg := "Email verified"
		if resp.Username != "" {
			msg = fmt.Sprintf("Email verified for %s", resp.Username)
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✅ "+msg))
		return nil
	}),
}

// resendVerificationCmd represents the resend-verification command
var resendVerificationCmd = &cobra.Command{
	Use:   "resend-verification <email>",
	Short: "Send the verification email again",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if _, err := a.client.ResendVerification(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Verification email sent to %s\n", args[0])
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd, whoamiCmd, verifyEmailCmd, resendVerificationCmd)

	registerCmd.Flags().StringVarP(&authUsername, "username", "u", "", "Username")
	registerCmd.Flags().StringVar(&authEmail, "email", "", "Email address")
	registerCmd.Flags().StringVar(&authFullName, "name", "", "Full name")
	loginCmd.Flags().StringVarP(&authUsername, "username", "u", "", "Username")
}
