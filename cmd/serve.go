package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/timelinekit/timeline/internal/server"
	"github.com/timelinekit/timeline/internal/utils"
	"github.com/timelinekit/timeline/pkg/enhance"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the text enhancement server",
	Long: `Start the text enhancement server.

POST /api/enhance rewrites a title, action or description through the
configured language model. GET /metrics exposes Prometheus metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := server.NewRegistry()
		svc, err := newEnhanceService(cmd, enhance.NewMetrics(reg))
		if err != nil {
			return err
		}
		if err := svc.Configured(); err != nil {
			utils.Log.Warn("No API key configured, every enhancement request will fail until enhance.api_key or NEBIUS_API_KEY is set")
		}

		srv := server.New(svc, reg, viper.GetString("server.username"), viper.GetString("server.password"))
		return srv.Start(viper.GetString("server.listen"))
	},
}

func newEnhanceService(cmd *cobra.Command, m *enhance.Metrics) (*enhance.Service, error) {
	hc, err := httpClient(cmd)
	if err != nil {
		return nil, err
	}
	temperature := viper.GetFloat64("enhance.temperature")
	return enhance.NewService(enhance.Config{
		APIKey:      viper.GetString("enhance.api_key"),
		Endpoint:    viper.GetString("enhance.endpoint"),
		Model:       viper.GetString("enhance.model"),
		Language:    viper.GetString("enhance.language"),
		MaxTokens:   viper.GetInt("enhance.max_tokens"),
		Temperature: &temperature,
		Retries:     viper.GetInt("enhance.retries"),
		CacheSize:   viper.GetInt("enhance.cache_size"),
		HTTPClient:  hc,
		Metrics:     m,
	})
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", ":8787", "HTTP listen address")
	_ = viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}
