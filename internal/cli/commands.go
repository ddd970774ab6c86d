package cli

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"docdash/internal/dashboard"
	"docdash/internal/model"
	"docdash/internal/session"
)

func (a *App) loginCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if email == "" {
				if email, err = prompt(a.in, a.out, "Email"); err != nil {
					return err
				}
			}
			pw, err := a.password()
			if err != nil {
				return err
			}
			u, err := a.dash.Login(cmd.Context(), a.store, email, pw)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Logged in as %s (%s)\n", u.FullName, u.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	return cmd
}

func (a *App) registerCmd() *cobra.Command {
	var email, fullName string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if email == "" {
				if email, err = prompt(a.in, a.out, "Email"); err != nil {
					return err
				}
			}
			if fullName == "" {
				if fullName, err = prompt(a.in, a.out, "Full name"); err != nil {
					return err
				}
			}
			pw, err := a.password()
			if err != nil {
				return err
			}
			u, err := a.dash.Register(cmd.Context(), a.store, email, pw, fullName)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Welcome, %s\n", u.FullName)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&fullName, "name", "n", "", "full name")
	return cmd
}

func (a *App) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.dash.Logout(a.store); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}

func (a *App) whoamiCmd() *cobra.Command {
	var verify bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var u *model.User
			if verify {
				var err error
				if u, err = a.dash.Verify(cmd.Context(), a.store); err != nil {
					return err
				}
			} else {
				sess, err := session.Bootstrap(a.store)
				if err != nil {
					return err
				}
				u = &sess.User
			}
			fmt.Fprintf(a.out, "%s <%s> %s\n", u.FullName, u.Email, u.Role)
			return nil
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "check the token with the server")
	return cmd
}

func (a *App) lsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List documents",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.dash.Load(cmd.Context(), a.store)
			if err != nil {
				return err
			}
			if len(view.Documents) == 0 {
				fmt.Fprintln(a.out, "No documents")
				return nil
			}

			tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			header := "ID\tNAME\tSIZE\tUPLOADED"
			if view.ShowOwnerColumn() {
				header += "\tOWNER"
			}
			fmt.Fprintln(tw, header)
			for _, d := range view.Documents {
				line := fmt.Sprintf("%d\t%s\t%s\t%s", d.ID, d.FileName, dashboard.FormatFileSize(d.FileSize), formatTime(d.UploadedAt))
				if view.ShowOwnerColumn() {
					owner := ""
					if d.UserName != nil {
						owner = *d.UserName
					}
					line += "\t" + owner
				}
				fmt.Fprintln(tw, line)
			}
			return tw.Flush()
		},
	}
}

func (a *App) uploadCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			name := filepath.Base(args[0])
			doc, err := a.dash.Upload(cmd.Context(), a.store, dashboard.FileInput{
				Name:        name,
				Type:        mime.TypeByExtension(filepath.Ext(name)),
				Description: description,
				Data:        f,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Uploaded #%d %s (%s)\n", doc.ID, doc.FileName, dashboard.FormatFileSize(doc.FileSize))
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "document description")
	return cmd
}

func (a *App) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.dash.Delete(cmd.Context(), a.store, id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted #%d\n", id)
			return nil
		},
	}
}

func (a *App) getCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "get ID",
		Short: "Download a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			sess, err := session.Bootstrap(a.store)
			if err != nil {
				return err
			}
			rc, name, err := a.api.DownloadDocument(cmd.Context(), sess.Token, id)
			if err != nil {
				return err
			}
			defer rc.Close()

			if output == "" {
				output = filepath.Base(name)
				if output == "." || output == "/" || output == "" {
					output = "document-" + args[0]
				}
			}
			f, err := os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
			if err != nil {
				return err
			}
			n, err := io.Copy(f, rc)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Saved %s (%s)\n", output, dashboard.FormatFileSize(n))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination path (default: original file name)")
	return cmd
}

func (a *App) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show local settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.dash.Settings(a.store)
			if err != nil {
				return err
			}
			a.printSettings(s)
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:       "toggle NAME",
		Short:     "Flip one setting",
		Args:      cobra.ExactArgs(1),
		ValidArgs: model.SettingNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.dash.ToggleSetting(a.store, args[0])
			if errors.Is(err, dashboard.ErrUnknownSetting) {
				return fmt.Errorf("unknown setting %q, expected one of: %s", args[0], strings.Join(model.SettingNames, ", "))
			}
			if err != nil {
				return err
			}
			a.printSettings(s)
			return nil
		},
	})
	return cmd
}

func (a *App) printSettings(s model.Settings) {
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, name := range model.SettingNames {
		state := "off"
		if *s.Field(name) {
			state = "on"
		}
		fmt.Fprintf(tw, "%s\t%s\n", name, state)
	}
	tw.Flush()
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid document id %q", s)
	}
	return id, nil
}
