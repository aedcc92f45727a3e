// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "BPS Explorer")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/bps-explorer.log")

	viper.SetDefault("database.path", "bps_database.db")
	viper.SetDefault("docs.path", "all_bps_docs")

	viper.SetDefault("webserver.host", "0.0.0.0")
	viper.SetDefault("webserver.port", "8080")

	viper.SetDefault("search.defaultlimit", 50)
	viper.SetDefault("search.maxlimit", 500)

	viper.SetDefault("etl.tables", "tables")

	viper.SetDefault("export.paragraphthreshold", 1000)
	viper.SetDefault("export.chartwidth", 640)
	viper.SetDefault("export.chartheight", 240)
}
