// defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// setDefaultConfig sets default values for the viper configuration
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	// Main configuration
	viper.SetDefault("main.name", "medlake")
	viper.SetDefault("main.timeas24h", true)
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "medlake.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)

	// Input configuration
	viper.SetDefault("input.messagesdir", "data/raw/telegram_messages")
	viper.SetDefault("input.detectionsdir", "data/enriched/detections")

	// Output configuration
	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "medlake.db")
	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "medlake")
	viper.SetDefault("output.mysql.password", "medlake")
	viper.SetDefault("output.mysql.database", "medlake")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	// Warehouse configuration
	viper.SetDefault("warehouse.calendarstart", "2024-01-01")
	viper.SetDefault("warehouse.fiscalyearstartmonth", 7)
	viper.SetDefault("warehouse.activityhigh", 100)
	viper.SetDefault("warehouse.activitymedium", 50)
	viper.SetDefault("warehouse.medicalratio", 0.7)
	viper.SetDefault("warehouse.mediaratio", 0.5)
	viper.SetDefault("warehouse.priceratio", 0.3)
	viper.SetDefault("warehouse.longmessagechars", 100)
	viper.SetDefault("warehouse.mediummessagechars", 50)
}
