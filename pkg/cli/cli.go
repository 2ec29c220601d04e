package cli

import (
	"context"
	"flag"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/fazztv/fztv/pkg/cmd/broadcast"
	"github.com/fazztv/fztv/pkg/cmd/importer"
	"github.com/fazztv/fztv/pkg/cmd/migrate"
	"github.com/fazztv/fztv/pkg/cmd/render"
	"github.com/fazztv/fztv/pkg/cmd/setting"
	"github.com/peterbourgon/ff/ffyaml"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
)

func New(version, commit, date string) *ffcli.Command {
	fs := flag.NewFlagSet("fztv", flag.ExitOnError)

	return &ffcli.Command{
		ShortUsage: "fztv [flags] <subcommand>",
		FlagSet:    fs,
		Exec: func(context.Context, []string) error {
			return flag.ErrHelp
		},
		Subcommands: []*ffcli.Command{
			newVersionCommand(version, commit, date),
			newBroadcastCommand(),
			newRenderCommand(),
			newImportCommand(),
			newMigrateCommand(),
			newSettingCommand(),
		},
	}
}

func newVersionCommand(version, commit, date string) *ffcli.Command {
	return &ffcli.Command{
		Name:       "version",
		ShortUsage: "fztv version",
		ShortHelp:  "print version",
		Exec: func(ctx context.Context, args []string) error {
			v := version
			if v == "" {
				if buildInfo, ok := debug.ReadBuildInfo(); ok {
					v = buildInfo.Main.Version
				}
			}
			if v == "" {
				v = "dev"
			}
			versionFields := []string{v}
			if commit != "" {
				versionFields = append(versionFields, commit)
			}
			if date != "" {
				versionFields = append(versionFields, date)
			}
			fmt.Println(strings.Join(versionFields, " "))
			return nil
		},
	}
}

func options() []ff.Option {
	return []ff.Option{
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ffyaml.Parser),
		ff.WithEnvVarPrefix("FZTV"),
	}
}

func newBroadcastCommand() *ffcli.Command {
	cmd := "broadcast"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &broadcast.Config{}
	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")

	fs.StringVar(&cfg.Catalog, "catalog", "", "episode catalog file (json, yaml or csv)")
	fs.StringVar(&cfg.DBType, "db-type", "", "db type (sqlite, mysql, postgres)")
	fs.StringVar(&cfg.DBConn, "db-conn", "", "path for sqlite, dsn for mysql or postgres")

	fs.StringVar(&cfg.RTMPURL, "rtmp-url", "", "rtmp ingest url")
	fs.StringVar(&cfg.StreamKey, "stream-key", "", "stream key appended to the rtmp url")

	fs.StringVar(&cfg.FFmpegBin, "ffmpeg-bin", "ffmpeg", "ffmpeg binary")
	fs.StringVar(&cfg.YTDLPBin, "ytdlp-bin", "yt-dlp", "yt-dlp binary")
	fs.StringVar(&cfg.CacheDir, "cache-dir", "", "directory for downloaded and rendered assets")

	fs.StringVar(&cfg.YoutubeKey, "youtube-key", "", "youtube data api key (optional)")

	fs.StringVar(&cfg.OpenAIToken, "openai-token", "", "completion api token (optional)")
	fs.StringVar(&cfg.OpenAIBaseURL, "openai-base-url", "", "completion api base url (optional)")
	fs.StringVar(&cfg.OpenAIModel, "openai-model", "", "completion model")
	fs.StringVar(&cfg.Prompt, "prompt", "", "commentary prompt, %s is replaced with the artist")

	fs.StringVar(&cfg.FontFile, "font-file", "", "font used for overlays")
	fs.StringVar(&cfg.LogoPath, "logo", "", "logo image (optional)")
	fs.StringVar(&cfg.RotatorPath, "rotator", "", "looping rotator clip (optional)")
	fs.BoolVar(&cfg.DisableEQ, "disable-eq", false, "disable the spectrum footer")

	fs.Float64Var(&cfg.PlayPercent, "play-percent", 100, "how much of each song is broadcast")

	fs.BoolVar(&cfg.Crossfade, "crossfade", false, "blend handoffs instead of cutting between playouts")

	fs.DurationVar(&cfg.FadeLength, "fade", 3*time.Second, "tail fade length")
	fs.DurationVar(&cfg.CutoverMargin, "cutover-margin", 5*time.Second, "how long before the fade the swap happens")
	fs.DurationVar(&cfg.WaitTimeout, "wait-timeout", 3*time.Minute, "max wait for the next item")
	fs.DurationVar(&cfg.PrepareTimeout, "prepare-timeout", 10*time.Minute, "max time to prepare one item")
	fs.DurationVar(&cfg.RetryDelay, "retry-delay", 30*time.Second, "pause after a failure")
	fs.IntVar(&cfg.MaxFailures, "max-failures", 10, "consecutive failures before giving up")
	fs.Int64Var(&cfg.MinClipBytes, "min-clip-bytes", 1024, "minimum rendered clip size")
	fs.BoolVar(&cfg.KeepClips, "keep-clips", false, "keep rendered clips after streaming")

	fs.StringVar(&cfg.Addr, "addr", "", "status endpoint address, e.g. :8080 (optional)")

	fs.StringVar(&cfg.FSType, "fs-type", "", "clip archive type (local, s3)")
	fs.StringVar(&cfg.FSConn, "fs-conn", "", "clip archive connection string")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("fztv %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "run the continuous broadcast",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return broadcast.Run(ctx, cfg)
		},
	}
}

func newRenderCommand() *ffcli.Command {
	cmd := "render"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &render.Config{}
	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")

	fs.StringVar(&cfg.Artist, "artist", "", "artist name")
	fs.StringVar(&cfg.Song, "song", "", "song name")
	fs.StringVar(&cfg.URL, "url", "", "song source url (searched when empty)")
	fs.StringVar(&cfg.BackdropURL, "backdrop-url", "", "backdrop source url (optional)")
	fs.StringVar(&cfg.Commentary, "commentary", "", "commentary text (generated when empty)")
	fs.StringVar(&cfg.ReleaseDate, "release-date", "", "release date, YYYY-MM-DD")
	fs.StringVar(&cfg.GUID, "guid", "", "item guid (generated when empty)")
	fs.Float64Var(&cfg.PlayPercent, "play-percent", 100, "how much of the song to render")
	fs.StringVar(&cfg.Output, "output", "", "output file")

	fs.StringVar(&cfg.FFmpegBin, "ffmpeg-bin", "ffmpeg", "ffmpeg binary")
	fs.StringVar(&cfg.YTDLPBin, "ytdlp-bin", "yt-dlp", "yt-dlp binary")
	fs.StringVar(&cfg.CacheDir, "cache-dir", "", "directory for downloaded assets")
	fs.StringVar(&cfg.YoutubeKey, "youtube-key", "", "youtube data api key (optional)")

	fs.StringVar(&cfg.OpenAIToken, "openai-token", "", "completion api token (optional)")
	fs.StringVar(&cfg.OpenAIBaseURL, "openai-base-url", "", "completion api base url (optional)")
	fs.StringVar(&cfg.OpenAIModel, "openai-model", "", "completion model")
	fs.StringVar(&cfg.Prompt, "prompt", "", "commentary prompt, %s is replaced with the artist")

	fs.StringVar(&cfg.FontFile, "font-file", "", "font used for overlays")
	fs.StringVar(&cfg.LogoPath, "logo", "", "logo image (optional)")
	fs.StringVar(&cfg.RotatorPath, "rotator", "", "looping rotator clip (optional)")
	fs.BoolVar(&cfg.DisableEQ, "disable-eq", false, "disable the spectrum footer")
	fs.DurationVar(&cfg.FadeLength, "fade", 3*time.Second, "tail fade length")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("fztv %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "render a single clip without streaming",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return render.Run(ctx, cfg)
		},
	}
}

func newImportCommand() *ffcli.Command {
	cmd := "import"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &importer.Config{}
	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.DBType, "db-type", "", "db type (sqlite, mysql, postgres)")
	fs.StringVar(&cfg.DBConn, "db-conn", "", "path for sqlite, dsn for mysql or postgres")
	fs.StringVar(&cfg.Input, "input", "", "episode catalog file (json, yaml or csv)")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("fztv %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "import an episode catalog into the database",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return importer.Run(ctx, cfg)
		},
	}
}

func newSettingCommand() *ffcli.Command {
	cmd := "setting"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &setting.Config{}
	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.DBType, "db-type", "", "db type (sqlite, mysql, postgres)")
	fs.StringVar(&cfg.DBConn, "db-conn", "", "path for sqlite, dsn for mysql or postgres")
	fs.StringVar(&cfg.Service, "service", "", "service the value belongs to (rtmp, openai, youtube, s3)")
	fs.StringVar(&cfg.Name, "name", "", "setting name, e.g. stream-key")
	fs.StringVar(&cfg.Value, "value", "", "setting value")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("fztv %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "store a credential or parameter in the database",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return setting.Run(ctx, cfg)
		},
	}
}

func newMigrateCommand() *ffcli.Command {
	cmd := "migrate"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &migrate.Config{}
	fs.StringVar(&cfg.DBType, "db-type", "", "db type (sqlite, mysql, postgres)")
	fs.StringVar(&cfg.DBConn, "db-conn", "", "path for sqlite, dsn for mysql or postgres")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("fztv %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "migrate the database schema",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return migrate.Run(ctx, cfg)
		},
	}
}
