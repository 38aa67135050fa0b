package restic

import (
	"fmt"
	"io"
	"regexp"
	"sort"

	"al.essio.dev/pkg/shellescape"
	"github.com/jgwest/restic-runner/model"
	"github.com/rs/zerolog/log"
)

var shellName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CompileDotenv writes the descriptor's environment as 'export NAME=value' lines, quoted for bash, for use with 'source'.
// It is intended for debugging a target by hand.
func CompileDotenv(repoConfigPath string, out io.Writer) error {

	descriptor, err := model.ReadRepositoryDescriptor(repoConfigPath)
	if err != nil {
		return err
	}

	log.Info().Msgf("In bash, you can source by running: source <(restic-runner compile-dotenv %s)", repoConfigPath)

	names := make([]string, 0, len(descriptor.Env))
	for name := range descriptor.Env {
		if !shellName.MatchString(name) {
			return &model.ConfigError{Path: repoConfigPath, Err: fmt.Errorf("env name '%s' is not a valid shell variable name", name)}
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := fmt.Fprintf(out, "export %s=%s\n", name, shellescape.Quote(descriptor.Env[name])); err != nil {
			return err
		}
	}

	return nil
}
