package config

import (
	"cmp"
	"strings"
	"time"
)

type Kind int

const (
	Bool Kind = iota
	String
	Select
	Duration
	StringSlice
	StringMap
)

type Field struct {
	Key     string
	Label   string
	Group   string
	Kind    Kind
	Default any
	Options []string
	Desc    string
	// Secret values are masked by DisplayValue.
	Secret bool
}

func (f *Field) DisplayName() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Key
}

var Schema = []Field{
	{
		Key:     "refresh_interval",
		Label:   "Refresh interval",
		Kind:    Duration,
		Default: 2 * time.Second,
		Desc:    "Maximum snapshot age before sockets are collected again",
	},
	{
		Key:     "graceful_timeout",
		Label:   "Graceful timeout",
		Group:   "kill",
		Kind:    Duration,
		Default: 3 * time.Second,
		Desc:    "Wait after SIGTERM before escalating to SIGKILL",
	},
	{
		Key:     "kill_grace",
		Label:   "Kill grace",
		Group:   "kill",
		Kind:    Duration,
		Default: time.Second,
		Desc:    "Wait after SIGKILL before reporting failure",
	},
	{
		Key:     "poll_interval",
		Label:   "Poll interval",
		Group:   "kill",
		Kind:    Duration,
		Default: 200 * time.Millisecond,
		Desc:    "How often a terminated process is checked for exit",
	},
	{
		Key:     "retry_delay",
		Label:   "Retry delay",
		Kind:    Duration,
		Default: 250 * time.Millisecond,
		Desc:    "Delay before retrying a failed collection once",
	},
	{
		Key:     "listen_addr",
		Label:   "Listen address",
		Group:   "server",
		Kind:    String,
		Default: ":3000",
		Desc:    "Address portwatch serve listens on",
	},
	{
		Key:     "cors_origin",
		Label:   "CORS origin",
		Group:   "server",
		Kind:    String,
		Default: "http://localhost:3000",
		Desc:    "Origin allowed to call the API from a browser",
	},
	{
		Key:     "redis_enabled",
		Label:   "Redis mirror",
		Group:   "redis",
		Kind:    Bool,
		Default: false,
		Desc:    "Share snapshots through redis",
	},
	{
		Key:     "redis_mode",
		Label:   "Redis mode",
		Group:   "redis",
		Kind:    Select,
		Default: "single",
		Options: []string{"single", "sentinel", "cluster"},
		Desc:    "Redis deployment type",
	},
	{
		Key:     "redis_addrs",
		Label:   "Redis addresses",
		Group:   "redis",
		Kind:    StringSlice,
		Default: []string{"localhost:6379"},
		Desc:    "Redis server, sentinel or cluster addresses",
	},
	{
		Key:     "redis_master",
		Label:   "Redis master",
		Group:   "redis",
		Kind:    String,
		Default: "",
		Desc:    "Master name in sentinel mode",
	},
	{
		Key:     "redis_password",
		Label:   "Redis password",
		Group:   "redis",
		Kind:    String,
		Default: "",
		Desc:    "Redis password",
		Secret:  true,
	},
	{
		Key:     "redis_ttl",
		Label:   "Redis TTL",
		Group:   "redis",
		Kind:    Duration,
		Default: 2 * time.Second,
		Desc:    "Lifetime of a mirrored snapshot",
	},
	{
		Key:     "log_level",
		Label:   "Log level",
		Group:   "logging",
		Kind:    Select,
		Default: "info",
		Options: []string{"debug", "info", "warn", "error"},
		Desc:    "Minimum level written to the log",
	},
	{
		Key:     "log_file",
		Label:   "Log file",
		Group:   "logging",
		Kind:    String,
		Default: "",
		Desc:    "Rotating log file, empty to log to stderr only",
	},
	{
		Key:     "default_verbose",
		Label:   "Verbose output",
		Kind:    Bool,
		Default: false,
		Desc:    "Enable verbose output by default",
	},
	{
		Key:     "default_editor",
		Label:   "Config editor",
		Kind:    Select,
		Default: "",
		Options: []string{"", "vim", "nvim", "nano", "vi"},
		Desc:    "Preferred editor for portwatch config edit",
	},
	{
		Key:   "protected",
		Label: "Protected processes",
		Group: "protected",
		Kind:  StringSlice,
		Default: []string{
			"init", "systemd", "launchd", "kernel_task",
			"WindowServer", "loginwindow", "sshd",
		},
		Desc: "Processes that are never terminated",
	},
	{
		Key:     "aliases",
		Label:   "Aliases",
		Group:   "aliases",
		Kind:    StringMap,
		Default: map[string]string{},
		Desc:    "Kill target shortcuts (name → target)",
	},
}

func LookupField(key string) *Field {
	for i := range Schema {
		if Schema[i].Key == key {
			return &Schema[i]
		}
	}
	return nil
}

type Group struct {
	Name   string
	Fields []Field
}

func (g Group) Title() string {
	return strings.ToUpper(g.Name[:1]) + g.Name[1:]
}

// Groups returns the schema fields grouped in schema order. Fields without a
// group belong to "general".
func Groups() []Group {
	var groups []Group
	index := map[string]int{}
	for _, f := range Schema {
		name := cmp.Or(f.Group, "general")
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, Group{Name: name})
		}
		groups[i].Fields = append(groups[i].Fields, f)
	}
	return groups
}
