package main

import (
	"errors"
	"fmt"

	"github.com/karua/hostcore/pkg/config"
	"github.com/karua/hostcore/pkg/host"
	"github.com/karua/hostcore/pkg/iam/user/usersrv"
	"github.com/karua/hostcore/pkg/kernel"
	"github.com/karua/hostcore/pkg/logx"
	"github.com/spf13/cobra"
)

var inviteAdminCmd = &cobra.Command{
	Use:   "invite-admin",
	Short: "Invite the first admin of a host",
	Long: `Invite an admin into an existing host (--host-id) or into a host created
on the spot (--host-name with its legal representative). The invite email
is sent before the command returns.`,
	RunE: runInviteAdmin,
}

func runInviteAdmin(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	hostID, _ := flags.GetString("host-id")
	hostName, _ := flags.GetString("host-name")
	name, _ := flags.GetString("name")
	email, _ := flags.GetString("email")
	username, _ := flags.GetString("username")

	if (hostID == "") == (hostName == "") {
		return errors.New("exactly one of --host-id or --host-name is required")
	}
	if hostID != "" && !kernel.ParseUUID(hostID) {
		return fmt.Errorf("invalid --host-id %q", hostID)
	}

	ctx := cmd.Context()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	c, err := NewContainer(ctx, cfg, WithSyncInvites())
	if err != nil {
		return err
	}
	defer c.Cleanup()

	tenantID := kernel.TenantID(hostID)
	if hostName != "" {
		cnpj, _ := flags.GetString("cnpj")
		repName, _ := flags.GetString("rep-name")
		repEmail, _ := flags.GetString("rep-email")
		repCPF, _ := flags.GetString("rep-cpf")

		req := host.CreateHostRequest{
			Name: hostName,
			LegalRepresentative: host.CreateRepresentativeRequest{
				Name:  repName,
				Email: repEmail,
				CPF:   repCPF,
			},
		}
		if cnpj != "" {
			req.CNPJ = &cnpj
		}
		h, err := c.HostService.Create(ctx, req)
		if err != nil {
			return err
		}
		tenantID = h.ID
		fmt.Fprintf(cmd.OutOrStdout(), "host created: %s\n", h.ID)
	} else if _, err := c.HostService.Get(ctx, tenantID); err != nil {
		return err
	}

	actor := &kernel.AuthContext{TenantID: tenantID, Role: kernel.RoleAdmin}
	u, err := c.IAM.UserService.InviteToHost(ctx, tenantID, actor, usersrv.InviteUserRequest{
		Name:     name,
		Email:    email,
		Username: username,
		Role:     kernel.RoleAdmin,
	})
	if err != nil {
		return err
	}

	logx.WithFields(logx.Fields{
		"host_id": tenantID.String(),
		"user_id": u.ID.String(),
	}).Info("admin invited")
	fmt.Fprintf(cmd.OutOrStdout(), "admin invited: %s (%s)\n", u.ID, u.Email)
	return nil
}

func init() {
	f := inviteAdminCmd.Flags()
	f.String("host-id", "", "existing host to invite into")
	f.String("host-name", "", "name of a host to create")
	f.String("cnpj", "", "CNPJ of the new host")
	f.String("rep-name", "", "legal representative name of the new host")
	f.String("rep-email", "", "legal representative email of the new host")
	f.String("rep-cpf", "", "legal representative CPF of the new host")
	f.String("name", "", "admin full name")
	f.String("email", "", "admin email")
	f.String("username", "", "admin username")
	_ = inviteAdminCmd.MarkFlagRequired("name")
	_ = inviteAdminCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(inviteAdminCmd)
}
