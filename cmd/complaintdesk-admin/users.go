package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
	"github.com/acadly/complaintdesk/internal/domain/model"
	"github.com/acadly/complaintdesk/internal/service"
)

type passwordFlags struct {
	value     string
	fromStdin bool
}

func (p *passwordFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.value, "password", "", "password to set (visible in shell history; prefer --password-stdin)")
	cmd.Flags().BoolVar(&p.fromStdin, "password-stdin", false, "read the password from the first line of stdin")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
}

// resolve returns the password from the flag or stdin. An empty result means
// none was given.
func (p *passwordFlags) resolve(in io.Reader) (string, error) {
	if !p.fromStdin {
		return p.value, nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("read password: stdin was empty")
	}
	return line, nil
}

func newUserCmd(cmdCtx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newUserAddCmd(cmdCtx))
	cmd.AddCommand(newUserSetRoleCmd(cmdCtx))
	cmd.AddCommand(newUserResetPasswordCmd(cmdCtx))
	return cmd
}

func newUserAddCmd(cmdCtx *commandContext) *cobra.Command {
	var (
		name          string
		role          string
		department    string
		studentNumber string
		pw            passwordFlags
	)
	cmd := &cobra.Command{
		Use:   "add EMAIL",
		Short: "Create an account",
		Long: `Create an account. Without a password the account can only sign in
through single sign-on. Officers need --department (code or id).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := parseRoleFlag(role)
			if err != nil {
				return err
			}
			secret, err := pw.resolve(cmd.InOrStdin())
			if err != nil {
				return err
			}
			return cmdCtx.withInfra(cmd.Context(), defaultCommandTimeout, false, false,
				func(ctx context.Context, infra *adminInfra) error {
					req := &model.CreateUserRequest{
						Email:    args[0],
						FullName: name,
						Role:     r,
						Password: secret,
					}
					if department != "" {
						id, err := resolveDepartment(ctx, infra.Departments, department)
						if err != nil {
							return err
						}
						req.DepartmentID = &id
					}
					if studentNumber != "" {
						req.StudentNumber = &studentNumber
					}
					u, err := infra.Users.Create(ctx, req)
					if err != nil {
						return fmt.Errorf("create user: %w", err)
					}
					return writef(cmd.OutOrStdout(), "created %s %s (%s)\n", u.Role, u.Email, u.ID)
				})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&role, "role", string(domainauth.RoleStudent), "student, department_officer or admin")
	cmd.Flags().StringVar(&department, "department", "", "department code or id (officers only)")
	cmd.Flags().StringVar(&studentNumber, "student-number", "", "student number")
	pw.register(cmd)
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newUserSetRoleCmd(cmdCtx *commandContext) *cobra.Command {
	var department string
	cmd := &cobra.Command{
		Use:   "set-role EMAIL ROLE",
		Short: "Change an account's role",
		Long: `Change an account's role. department_officer requires --department;
every other role clears the department. Open sessions keep the old role
until they are revoked with "sessions revoke".`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := parseRoleFlag(args[1])
			if err != nil {
				return err
			}
			if r == domainauth.RoleDepartmentOfficer && department == "" {
				return errors.New("--department is required for department_officer")
			}
			return cmdCtx.withInfra(cmd.Context(), defaultCommandTimeout, false, false,
				func(ctx context.Context, infra *adminInfra) error {
					u, err := infra.Users.GetByEmail(ctx, model.NormalizeEmail(args[0]))
					if err != nil {
						return fmt.Errorf("find user: %w", err)
					}
					var deptID string
					if r == domainauth.RoleDepartmentOfficer {
						if deptID, err = resolveDepartment(ctx, infra.Departments, department); err != nil {
							return err
						}
					}
					updated, err := infra.Users.SetRole(ctx, u.ID, r, deptID)
					if err != nil {
						return fmt.Errorf("set role: %w", err)
					}
					return writef(cmd.OutOrStdout(), "%s is now %s\n", updated.Email, updated.Role)
				})
		},
	}
	cmd.Flags().StringVar(&department, "department", "", "department code or id")
	return cmd
}

func newUserResetPasswordCmd(cmdCtx *commandContext) *cobra.Command {
	var pw passwordFlags
	cmd := &cobra.Command{
		Use:   "reset-password EMAIL",
		Short: "Set a new password and sign the account out everywhere",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := pw.resolve(cmd.InOrStdin())
			if err != nil {
				return err
			}
			if secret == "" {
				return errors.New("one of --password or --password-stdin is required")
			}
			return cmdCtx.withInfra(cmd.Context(), defaultCommandTimeout, true, false,
				func(ctx context.Context, infra *adminInfra) error {
					u, err := infra.Users.GetByEmail(ctx, model.NormalizeEmail(args[0]))
					if err != nil {
						return fmt.Errorf("find user: %w", err)
					}
					if err := infra.Users.ResetPassword(ctx, u.ID, secret); err != nil {
						return fmt.Errorf("reset password: %w", err)
					}
					if infra.Sessions == nil {
						cmdCtx.Logger.WarnContext(ctx, "redis not configured; existing sessions were not revoked")
					}
					return writef(cmd.OutOrStdout(), "password reset for %s\n", u.Email)
				})
		},
	}
	pw.register(cmd)
	return cmd
}

func newSessionsCmd(cmdCtx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and revoke login sessions",
	}
	cmd.AddCommand(newSessionsRevokeCmd(cmdCtx))
	return cmd
}

func newSessionsRevokeCmd(cmdCtx *commandContext) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "revoke EMAIL",
		Short: "Sign an account out of every session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := model.NormalizeEmail(args[0])
			if err := confirmAction(cmd, yes, fmt.Sprintf("About to revoke every session of %s.", email)); err != nil {
				return err
			}
			return cmdCtx.withInfra(cmd.Context(), defaultCommandTimeout, true, true,
				func(ctx context.Context, infra *adminInfra) error {
					u, err := infra.Users.GetByEmail(ctx, email)
					if err != nil {
						return fmt.Errorf("find user: %w", err)
					}
					n, err := infra.Sessions.DeleteByUser(ctx, u.ID)
					if err != nil {
						return fmt.Errorf("revoke sessions: %w", err)
					}
					cmdCtx.Logger.InfoContext(ctx, "sessions revoked", "user_id", u.ID, "count", n)
					return writef(cmd.OutOrStdout(), "revoked %d session(s) for %s\n", n, u.Email)
				})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func parseRoleFlag(value string) (domainauth.Role, error) {
	r, ok := domainauth.ParseRole(value)
	if !ok {
		return "", fmt.Errorf("unknown role %q (want one of %s)", value, joinRoles(domainauth.Roles()))
	}
	return r, nil
}

func joinRoles(roles []domainauth.Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.String()
	}
	return strings.Join(names, ", ")
}

// resolveDepartment accepts a department id or code and returns the id.
func resolveDepartment(ctx context.Context, svc *service.DepartmentService, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if _, err := uuid.Parse(ref); err == nil {
		d, err := svc.GetByID(ctx, ref)
		if err != nil {
			return "", fmt.Errorf("find department %s: %w", ref, err)
		}
		return d.ID, nil
	}
	d, err := svc.GetByCode(ctx, strings.ToUpper(ref))
	if err != nil {
		return "", fmt.Errorf("find department %q: %w", ref, err)
	}
	return d.ID, nil
}
