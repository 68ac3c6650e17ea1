// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// DefaultFolders maps dialect codes to their storage folder names.
var DefaultFolders = map[string]string{
	"dhaka":        "Dhaka",
	"chittagong":   "Chittagong",
	"rajshahi":     "Rajshahi",
	"khulna":       "Khulna",
	"barisal":      "Barisal",
	"sylhet":       "Sylhet",
	"rangpur":      "Rangpur",
	"mymensingh":   "Mymensingh",
	"noakhali":     "Noakhali",
	"comilla":      "Comilla",
	"feni":         "Feni",
	"brahmanbaria": "Brahmanbaria",
	"sandwip":      "Sandwip",
	"chandpur":     "Chandpur",
	"lakshmipur":   "Lakshmipur",
	"bhola":        "Bhola",
	"patuakhali":   "Patuakhali",
	"bagerhat":     "Bagerhat",
	"jessore":      "Jessore",
	"kushtia":      "Kushtia",
	"jhenaidah":    "Jhenaidah",
	"gaibandha":    "Gaibandha",
	"kurigram":     "Kurigram",
	"panchagarh":   "Panchagarh",
	"lalmonirhat":  "Lalmonirhat",
	"dinajpur":     "Dinajpur",
	"natore":       "Natore",
	"pabna":        "Pabna",
	"sirajganj":    "Sirajganj",
	"bogura":       "Bogura",
}

// Sets default values for the configuration.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("datadir", "data")

	v.SetDefault("logging.defaultlevel", "info")
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", true)
	v.SetDefault("logging.console.level", "info")
	v.SetDefault("logging.fileoutput.enabled", false)
	v.SetDefault("logging.fileoutput.path", "logs/shobdotori.log")
	v.SetDefault("logging.fileoutput.level", "info")

	v.SetDefault("webserver.host", "")
	v.SetDefault("webserver.port", "5000")
	v.SetDefault("webserver.allowedorigins", []string{"http://localhost:3000"})
	v.SetDefault("webserver.staticdir", "")
	v.SetDefault("webserver.readtimeout", 30*time.Second)
	v.SetDefault("webserver.writetimeout", 120*time.Second)
	v.SetDefault("webserver.shutdowntimeout", 15*time.Second)
	v.SetDefault("webserver.ratelimit.enabled", true)
	v.SetDefault("webserver.ratelimit.rate", 1.0)
	v.SetDefault("webserver.ratelimit.burst", 10)
	v.SetDefault("webserver.ratelimit.expiresin", 3*time.Minute)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.url", "")
	v.SetDefault("database.sqlite.path", "data/shobdotori.db")
	v.SetDefault("database.mysql.host", "localhost")
	v.SetDefault("database.mysql.port", "3306")
	v.SetDefault("database.mysql.username", "")
	v.SetDefault("database.mysql.password", "")
	v.SetDefault("database.mysql.database", "shobdotori")
	v.SetDefault("database.mysql.maxopenconns", 10)

	v.SetDefault("tracker.selection", "sequential")

	v.SetDefault("upload.maxfilesize", "50MB")
	v.SetDefault("upload.allowedextensions", []string{".wav", ".webm", ".ogg", ".mp3"})
	v.SetDefault("upload.genders", []string{"male", "female"})
	v.SetDefault("upload.timeout", 60*time.Second)
	v.SetDefault("upload.rejectindexmismatch", false)
	v.SetDefault("upload.tempdir", "")

	v.SetDefault("audio.ffmpegpath", "")
	v.SetDefault("audio.samplerate", 16000)
	v.SetDefault("audio.channels", 1)
	v.SetDefault("audio.bitdepth", 16)

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.folders", DefaultFolders)
	v.SetDefault("storage.retry.maxattempts", 3)
	v.SetDefault("storage.retry.backoff", 2*time.Second)
	v.SetDefault("storage.gdrive.clientid", "")
	v.SetDefault("storage.gdrive.clientsecret", "")
	v.SetDefault("storage.gdrive.refreshtoken", "")
	v.SetDefault("storage.gdrive.folderid", "")
	v.SetDefault("storage.gdrive.requestspersecond", 5.0)
	v.SetDefault("storage.gdrive.burst", 5)
	v.SetDefault("storage.local.path", "data/recordings")
	v.SetDefault("storage.sftp.host", "")
	v.SetDefault("storage.sftp.port", 22)
	v.SetDefault("storage.sftp.username", "")
	v.SetDefault("storage.sftp.password", "")
	v.SetDefault("storage.sftp.keyfile", "")
	v.SetDefault("storage.sftp.knownhostsfile", "")
	v.SetDefault("storage.sftp.basepath", "recordings")
	v.SetDefault("storage.sftp.timeout", 30*time.Second)
	v.SetDefault("storage.ftp.host", "")
	v.SetDefault("storage.ftp.port", 21)
	v.SetDefault("storage.ftp.username", "")
	v.SetDefault("storage.ftp.password", "")
	v.SetDefault("storage.ftp.basepath", "recordings")
	v.SetDefault("storage.ftp.timeout", 30*time.Second)

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "production")
	v.SetDefault("sentry.samplerate", 1.0)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.topic", "shobdotori/progress")
	v.SetDefault("mqtt.clientid", "shobdotori")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.retain", false)

	v.SetDefault("notification.enabled", false)
	v.SetDefault("notification.urls", []string{})
	v.SetDefault("notification.timeout", 10*time.Second)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}
