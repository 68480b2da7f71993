// Package dataset reads labelled face images from a directory tree.
//
// Every subdirectory of the root is one class, named "<age>.<gender>" (e.g. "3.1"). The
// images inside it are JPEG or PNG files.
package dataset

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/kimwoo11/TimeMachiNet/condition"
	"github.com/kimwoo11/TimeMachiNet/imageio"
	"github.com/kimwoo11/TimeMachiNet/tensor"
)

var extensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Item is a single labelled image
type Item struct {
	Path  string
	Label condition.Label
}

// Dataset is a list of labelled images, all scaled to the same size when loaded
type Dataset struct {
	Size   int
	Scheme condition.Scheme
	Items  []Item
}

// Open scans 'root' for class directories. Files with other extensions are ignored, as
// are files directly inside 'root'. Items are sorted by path.
func Open(root string, size int, scheme condition.Scheme) (*Dataset, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't read dataset directory %q", root)
	}

	ds := &Dataset{Size: size, Scheme: scheme}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}

		label, err := scheme.Parse(e.Name())
		if err != nil {
			return nil, errors.Wrapf(err, "Can't use class directory %q", e.Name())
		}

		dir := filepath.Join(root, e.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't read class directory %q", dir)
		}

		for _, f := range files {
			if f.IsDir() || !extensions[strings.ToLower(filepath.Ext(f.Name()))] {
				continue
			}
			ds.Items = append(ds.Items, Item{Path: filepath.Join(dir, f.Name()), Label: label})
		}
	}

	if len(ds.Items) == 0 {
		return nil, errors.Errorf("No images found in %q", root)
	}

	sort.Slice(ds.Items, func(i, j int) bool { return ds.Items[i].Path < ds.Items[j].Path })
	return ds, nil
}

// Len returns the number of images
func (ds *Dataset) Len() int {
	return len(ds.Items)
}

func (ds *Dataset) subset(items []Item) *Dataset {
	return &Dataset{Size: ds.Size, Scheme: ds.Scheme, Items: items}
}

// Split shuffles the images and holds out 'validSize' of them. The rest are returned as the
// training set.
func (ds *Dataset) Split(validSize int, rng *rand.Rand) (train, valid *Dataset, err error) {
	if validSize < 0 || validSize >= len(ds.Items) {
		return nil, nil, errors.Errorf("Can't hold out %d of %d images", validSize, len(ds.Items))
	}

	order := rng.Perm(len(ds.Items))
	shuffled := make([]Item, len(order))
	for i, j := range order {
		shuffled[i] = ds.Items[j]
	}

	return ds.subset(shuffled[validSize:]), ds.subset(shuffled[:validSize]), nil
}

// Batch is a set of images with their conditions
type Batch struct {
	// N×3×Size×Size
	Images *tensor.Tensor
	// N×Width
	Conditions *tensor.Tensor
	Labels     []condition.Label
}

// Load reads the given items into a batch, decoding the images in parallel.
func (ds *Dataset) Load(ctx context.Context, items []Item) (*Batch, error) {
	n := len(items)
	b := &Batch{
		Images: tensor.New(n, 3, ds.Size, ds.Size),
		Labels: make([]condition.Label, n),
	}

	ages := make([]int, n)
	genders := make([]int, n)
	for i, it := range items {
		b.Labels[i] = it.Label
		ages[i], genders[i] = it.Label.Age, it.Label.Gender
	}

	cond, err := ds.Scheme.Tensor(ages, genders)
	if err != nil {
		return nil, err
	}
	b.Conditions = cond

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(loaders)
	for i, it := range items {
		i, it := i, it
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			img, err := imageio.Decode(it.Path)
			if err != nil {
				return err
			}
			imageio.Draw(b.Images, i, img)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return b, nil
}

// All loads every image as one batch
func (ds *Dataset) All(ctx context.Context) (*Batch, error) {
	return ds.Load(ctx, ds.Items)
}
