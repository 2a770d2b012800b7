package session

import (
	"github.com/spf13/cobra"

	"github.com/openkcm/implicit-flow/internal/business"
	"github.com/openkcm/implicit-flow/internal/cmdutils"
)

func LoginCmd(buildInfo string) *cobra.Command {
	return cmdutils.CobraCommand(
		"login",
		"Sign in interactively",
		"Asks the serve process to open the provider login and waits for the session",
		buildInfo,
		cmdutils.RunAsJob,
		business.LoginMain,
	)
}

func RefreshCmd(buildInfo string) *cobra.Command {
	return cmdutils.CobraCommand(
		"refresh",
		"Refresh the session silently",
		"Asks the serve process for a refresh without user interaction",
		buildInfo,
		cmdutils.RunAsJob,
		business.RefreshMain,
	)
}

func LogoutCmd(buildInfo string) *cobra.Command {
	return cmdutils.CobraCommand(
		"logout",
		"Clear the session",
		"Clears the stored session. The provider session is left untouched",
		buildInfo,
		cmdutils.RunAsJob,
		business.LogoutMain,
	)
}

func StatusCmd(buildInfo string) *cobra.Command {
	return cmdutils.CobraCommand(
		"status",
		"Show the session",
		"Shows whether a session is stored and what it contains",
		buildInfo,
		cmdutils.RunAsJob,
		business.StatusMain,
	)
}

func CompleteCmd(buildInfo string) *cobra.Command {
	cmd := cmdutils.CobraCommand(
		"complete <url>",
		"Hand over a redirect",
		"Hands the address a browser ended up on after login to the serve process",
		buildInfo,
		cmdutils.RunAsJob,
		business.CompleteMain,
	)
	cmd.Args = cobra.ExactArgs(1)

	return cmd
}
