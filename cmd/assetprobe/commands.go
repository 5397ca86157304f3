package main

import (
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"media-resolver/internal/assets"
	"media-resolver/internal/database"
	"media-resolver/internal/indexer"
	"media-resolver/internal/media"
	"media-resolver/internal/mediatypes"
	"media-resolver/internal/pipeline"
	"media-resolver/internal/resolver"
)

// references builds one reference per URI argument and per --id value.
func references(uris, ids []string) []assets.Reference {
	refs := make([]assets.Reference, 0, len(uris)+len(ids))
	for _, u := range uris {
		refs = append(refs, assets.Reference{URI: u})
	}
	for _, id := range ids {
		refs = append(refs, assets.Reference{Info: &assets.PickerInfo{AssetIdentifier: id}})
	}
	return refs
}

func (a *app) resolveCmd() *cobra.Command {
	var ids []string
	cmd := &cobra.Command{
		Use:   "resolve [uri...]",
		Short: "Print the catalog entry each reference resolves to",
		RunE: func(cmd *cobra.Command, args []string) error {
			refs := references(args, ids)
			if len(refs) == 0 {
				return errors.New("at least one uri or --id is required")
			}
			if err := a.open(cmd.Context()); err != nil {
				return err
			}

			r := resolver.New(a.store)
			type resolved struct {
				Reference string         `json:"reference"`
				Handle    *assets.Handle `json:"handle,omitempty"`
				Error     string         `json:"error,omitempty"`
			}
			out := make([]resolved, 0, len(refs))
			var failed int
			for _, ref := range refs {
				h, err := r.ResolveAsset(cmd.Context(), ref)
				item := resolved{Reference: ref.String(), Handle: h}
				if err != nil {
					item.Error = err.Error()
					failed++
				}
				out = append(out, item)
			}
			if err := a.print(out); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d references did not resolve", failed, len(refs))
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&ids, "id", nil, "catalog identifier to resolve (repeatable)")
	return cmd
}

func (a *app) metadataCmd() *cobra.Command {
	var (
		ids  []string
		opts pipeline.Options
	)
	cmd := &cobra.Command{
		Use:   "metadata [uri...]",
		Short: "Run references through the pipeline and print their metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			refs := references(args, ids)
			if len(refs) == 0 {
				return errors.New("at least one uri or --id is required")
			}
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			p := a.pipeline()

			if len(refs) == 1 {
				res, err := p.Process(cmd.Context(), refs[0], opts)
				if err != nil {
					return err
				}
				return a.print(res)
			}

			type item struct {
				Reference string           `json:"reference"`
				Result    *pipeline.Result `json:"result,omitempty"`
				Error     string           `json:"error,omitempty"`
			}
			items := p.ProcessBatch(cmd.Context(), refs, opts)
			out := make([]item, len(items))
			var failed int
			for i, it := range items {
				out[i] = item{Reference: it.Reference.String(), Result: it.Result}
				if it.Err != nil {
					out[i].Error = it.Err.Error()
					failed++
				}
			}
			if err := a.print(out); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d references failed", failed, len(refs))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&ids, "id", nil, "catalog identifier to process (repeatable)")
	f.IntVar(&opts.MaxWidth, "max-width", 0, "bound output width (0 disables resizing)")
	f.IntVar(&opts.MaxHeight, "max-height", 0, "bound output height (0 disables resizing)")
	f.IntVar(&opts.Quality, "quality", media.DefaultJPEGQuality, "JPEG quality of re-encoded output")
	f.BoolVar(&opts.Normalize, "normalize", true, "rotate output upright")
	f.StringVarP(&opts.OutputDir, "output", "o", "", "write output bytes into this directory")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	var asset database.Asset
	var id string
	cmd := &cobra.Command{
		Use:   "import --cloud-key KEY",
		Short: "Register a cloud-only asset in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if asset.CloudKey == "" {
				return errors.New("--cloud-key is required")
			}
			if id == "" {
				id = uuid.NewString()
			}
			if asset.ByteSize < 0 || asset.ByteSize > database.MaxAssetSize {
				return fmt.Errorf("--size %d is outside 0..%d", asset.ByteSize, int64(database.MaxAssetSize))
			}
			asset.Identifier = assets.Identifier(id)
			if asset.Filename == "" {
				asset.Filename = path.Base(asset.CloudKey)
			}
			if asset.URI == "" {
				asset.URI = "cloud:" + asset.CloudKey
			}
			if asset.Kind == "" {
				asset.Kind = mediatypes.KindForExtension(asset.Filename)
			}
			asset.MimeType = mediatypes.MimeTypeForExtension(asset.Filename)
			asset.ModTime = time.Now()

			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			if err := a.db.SaveAsset(cmd.Context(), &asset); err != nil {
				return fmt.Errorf("save %s: %w", id, err)
			}
			return a.print(asset)
		},
	}
	f := cmd.Flags()
	f.StringVar(&id, "id", "", "identifier to register (default: a random UUID)")
	f.StringVar(&asset.CloudKey, "cloud-key", "", "object key in the cloud backend")
	f.StringVar(&asset.URI, "uri", "", "reference the host knows the asset by (default: cloud:<key>)")
	f.StringVar(&asset.Filename, "filename", "", "original filename (default: base of the key)")
	f.Int64Var(&asset.ByteSize, "size", 0, "object size in bytes, if known")
	f.Var(kindValue{&asset.Kind}, "kind", "image, video or other (default: from the filename)")
	return cmd
}

// kindValue adapts mediatypes.Kind to a flag.
type kindValue struct{ k *mediatypes.Kind }

func (v kindValue) String() string {
	if v.k == nil {
		return ""
	}
	return string(*v.k)
}

func (v kindValue) Set(s string) error {
	switch k := mediatypes.Kind(s); k {
	case mediatypes.KindImage, mediatypes.KindVideo, mediatypes.KindOther:
		*v.k = k
		return nil
	}
	return fmt.Errorf("unknown kind %q", s)
}

func (v kindValue) Type() string { return "kind" }

func (a *app) indexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index DIR",
		Short: "Index a library directory once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			idx := indexer.New(a.db, args[0], 0)
			if err := idx.Index(cmd.Context()); err != nil {
				return err
			}
			return a.print(idx.GetHealthStatus())
		},
	}
}

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print catalog counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			stats, err := a.db.GetStats(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(struct {
				LocalImages int `json:"localImages"`
				CloudImages int `json:"cloudImages"`
				LocalVideos int `json:"localVideos"`
				CloudVideos int `json:"cloudVideos"`
				LocalOther  int `json:"localOther"`
				CloudOther  int `json:"cloudOther"`
				Total       int `json:"total"`
			}{
				stats.LocalImages, stats.CloudImages,
				stats.LocalVideos, stats.CloudVideos,
				stats.LocalOther, stats.CloudOther,
				stats.Total(),
			})
		},
	}
}
