package cli

import (
	"github.com/spf13/cobra"

	"idcardocr/internal/modkit/module"
	phttp "idcardocr/internal/platform/net/http"
	"idcardocr/internal/services/api"
	recdomain "idcardocr/internal/services/recognize/domain"
	recmod "idcardocr/internal/services/recognize/module"
)

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:         "serve",
		Short:       "Serve single image recognition over HTTP",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annLogFile: "api.log"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv, err := a.buildServer(addr)
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default API_PORT or :4000)")
	return cmd
}

func (a *app) buildServer(addr string) (*phttp.Server, error) {
	mod, err := recmod.New(a.deps(), recmod.Options{}, a.recognizeOpts()...)
	if err != nil {
		return nil, err
	}
	opt := api.FromConfig(a.cfg)
	opt.Logger = a.log
	opt.Encoded = module.MustPortsOf[recdomain.EncodedRecognizer](mod)

	if addr == "" {
		addr = a.cfg.MayPort("API_PORT", ":4000")
	}
	srv := phttp.NewServer(addr, a.log)
	if err := api.Mount(srv.Router(), opt); err != nil {
		return nil, err
	}
	return srv, nil
}

