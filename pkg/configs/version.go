package configs

// AppName 应用名称.
const AppName = "filesort"

// AppVersion 应用版本，可通过 -ldflags "-X" 覆盖.
var AppVersion = "0.1.0"
