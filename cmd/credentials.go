package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/imagereport/internal/credentials"
)

// credentialFlags are shared by the commands that talk to the registry.
type credentialFlags struct {
	username   string
	token      string
	tokenStdin bool
}

func (f *credentialFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.username, "username", "u", "", "Docker Hub username (env "+credentials.EnvUsername+")")
	cmd.Flags().StringVarP(&f.token, "token", "t", "", "Docker Hub password or access token (env "+credentials.EnvToken+")")
	cmd.Flags().BoolVar(&f.tokenStdin, "token-stdin", false, "read the token from stdin")
	cmd.MarkFlagsMutuallyExclusive("token", "token-stdin")
}

func (f *credentialFlags) resolve(cmd *cobra.Command, lookup func(string) (string, bool)) (credentials.Credentials, error) {
	return credentials.Resolve(&credentials.Opts{
		Username:   f.username,
		Token:      f.token,
		TokenStdin: f.tokenStdin,
		Stdin:      cmd.InOrStdin(),
		Prompt:     os.Stderr,
		LookupEnv:  lookup,
	})
}
