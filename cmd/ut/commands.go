package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tendant/uploadthing-go/pkg/uploadthing"
	"github.com/tendant/uploadthing-go/pkg/uploadthing/filekey"
)

type app struct {
	envFile string
	verbose bool

	cfg    *Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:               "ut",
		Short:             "UploadThing command line client",
		Long:              "ut uploads and manages files in an UploadThing app. Credentials come from UPLOADTHING_TOKEN.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.init,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", "load environment from this file instead of .env")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		a.newUploadCmd(),
		a.newDeleteCmd(),
		a.newListCmd(),
		a.newUsageCmd(),
		a.newRenameCmd(),
		a.newACLCmd(),
		a.newKeyCmd(),
		a.newSignCmd(),
	)

	return root
}

func (a *app) init(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(a.envFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.logger)
	return nil
}

func (a *app) client() (*uploadthing.Client, error) {
	opts := append(a.cfg.clientOptions(), uploadthing.WithLogger(a.logger))
	return uploadthing.New(opts...)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) newUploadCmd() *cobra.Command {
	var acl, disposition string

	cmd := &cobra.Command{
		Use:   "upload <path>...",
		Short: "Upload files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}

			files := make([]uploadthing.File, 0, len(args))
			for _, path := range args {
				f, closer, err := uploadthing.FileFromPath(path)
				if err != nil {
					return err
				}
				defer closer.Close()
				files = append(files, f)
			}

			results, err := client.UploadFiles(cmd.Context(), files,
				uploadthing.WithACL(uploadthing.ACL(acl)),
				uploadthing.WithContentDisposition(uploadthing.ContentDisposition(disposition)),
			)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().StringVar(&acl, "acl", string(uploadthing.ACLPublicRead), "public-read or private")
	cmd.Flags().StringVar(&disposition, "disposition", string(uploadthing.DispositionInline), "inline or attachment")
	return cmd
}

func (a *app) newDeleteCmd() *cobra.Command {
	var byCustomID bool

	cmd := &cobra.Command{
		Use:   "delete <key>...",
		Short: "Delete files by file key or custom id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}

			keyType := uploadthing.KeyTypeFileKey
			if byCustomID {
				keyType = uploadthing.KeyTypeCustomID
			}

			resp, err := client.DeleteFiles(cmd.Context(), args, keyType)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().BoolVar(&byCustomID, "custom-id", false, "treat arguments as custom ids")
	return cmd
}

func (a *app) newListCmd() *cobra.Command {
	var opts uploadthing.ListFilesOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}

			resp, err := client.ListFiles(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of files")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "number of files to skip")
	return cmd
}

func (a *app) newUsageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show storage usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}

			usage, err := client.GetUsageInfo(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), usage)
		},
	}
}

func (a *app) newRenameCmd() *cobra.Command {
	var byCustomID bool

	cmd := &cobra.Command{
		Use:   "rename <key> <new-name> [<key> <new-name>]...",
		Short: "Rename files",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%2 != 0 {
				return fmt.Errorf("expected pairs of <key> <new-name>, got %d arguments", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}

			updates := make([]uploadthing.RenameUpdate, 0, len(args)/2)
			for i := 0; i < len(args); i += 2 {
				u := uploadthing.RenameUpdate{NewName: args[i+1]}
				if byCustomID {
					u.CustomID = args[i]
				} else {
					u.FileKey = args[i]
				}
				updates = append(updates, u)
			}

			resp, err := client.RenameFiles(cmd.Context(), updates)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().BoolVar(&byCustomID, "custom-id", false, "treat keys as custom ids")
	return cmd
}

func (a *app) newACLCmd() *cobra.Command {
	var byCustomID bool

	cmd := &cobra.Command{
		Use:   "acl <public-read|private> <key>...",
		Short: "Change the ACL of files",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}

			acl := uploadthing.ACL(args[0])
			updates := make([]uploadthing.ACLUpdate, 0, len(args)-1)
			for _, key := range args[1:] {
				u := uploadthing.ACLUpdate{ACL: acl}
				if byCustomID {
					u.CustomID = key
				} else {
					u.FileKey = key
				}
				updates = append(updates, u)
			}

			resp, err := client.UpdateACL(cmd.Context(), updates)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().BoolVar(&byCustomID, "custom-id", false, "treat keys as custom ids")
	return cmd
}

func (a *app) newKeyCmd() *cobra.Command {
	var appID string

	cmd := &cobra.Command{
		Use:   "key <seed>",
		Short: "Derive the file key for a seed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if appID == "" {
				token, err := uploadthing.DecodeToken(a.cfg.Token)
				if err != nil {
					return err
				}
				appID = token.AppID
			}

			key, err := filekey.Generate(args[0], appID)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), key)
			return err
		},
	}

	cmd.Flags().StringVar(&appID, "app-id", "", "app id (default: from UPLOADTHING_TOKEN)")
	return cmd
}

func (a *app) newSignCmd() *cobra.Command {
	var fileType, customID, acl, disposition string

	cmd := &cobra.Command{
		Use:   "sign <file-key> <file-name> <file-size>",
		Short: "Print a signed ingest URL",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid file size %q: %w", args[2], err)
			}

			client, err := a.client()
			if err != nil {
				return err
			}

			url, err := client.SignUploadURL(args[0], args[1], size, strings.TrimSpace(fileType), customID,
				uploadthing.WithACL(uploadthing.ACL(acl)),
				uploadthing.WithContentDisposition(uploadthing.ContentDisposition(disposition)),
			)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), url)
			return err
		},
	}

	cmd.Flags().StringVar(&fileType, "type", "", "MIME type")
	cmd.Flags().StringVar(&customID, "custom-id", "", "custom id")
	cmd.Flags().StringVar(&acl, "acl", string(uploadthing.ACLPublicRead), "public-read or private")
	cmd.Flags().StringVar(&disposition, "disposition", string(uploadthing.DispositionInline), "inline or attachment")
	return cmd
}
