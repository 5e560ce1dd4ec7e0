package config

const (
	defaultLogDir            = "~/.local/share/chela/logs"
	defaultCullRoot          = "~/Pictures"
	defaultAPIBind           = "127.0.0.1:7489"
	defaultPreviewBinary     = "magick"
	defaultPreviewFormat     = "webp"
	defaultPreviewSubdir     = "_preview"
	defaultPreviewMaxWidth   = 2000
	defaultPreviewMaxHeight  = 1400
	defaultPreviewQuality    = 75
	defaultThreadLimit       = 1
	defaultReservedCores     = 3
	defaultNotifyRetryMillis = 10
	defaultBurstGapMillis    = 2000
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			CullRoot: defaultCullRoot,
			APIBind:  defaultAPIBind,
		},
		Preview: Preview{
			Binary:         defaultPreviewBinary,
			Format:         defaultPreviewFormat,
			Subdir:         defaultPreviewSubdir,
			MaxWidth:       defaultPreviewMaxWidth,
			MaxHeight:      defaultPreviewMaxHeight,
			Quality:        defaultPreviewQuality,
			ThreadLimit:    defaultThreadLimit,
			ReservedCores:  defaultReservedCores,
			NotifyRetryMS:  defaultNotifyRetryMillis,
			ValidateOutput: true,
			BurstGapMS:     defaultBurstGapMillis,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
