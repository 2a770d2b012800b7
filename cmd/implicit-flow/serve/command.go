package serve

import (
	"github.com/spf13/cobra"

	"github.com/openkcm/implicit-flow/internal/business"
	"github.com/openkcm/implicit-flow/internal/cmdutils"
)

func Cmd(buildInfo string) *cobra.Command {
	return cmdutils.CobraCommand(
		"serve",
		"Host the implicit flow",
		"Hosts the redirect interceptor: opens login and refresh navigations and stores the session they end in",
		buildInfo,
		cmdutils.RunAsService,
		business.ServeMain,
	)
}
