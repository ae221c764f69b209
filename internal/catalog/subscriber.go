package catalog

import (
	"photo-catalog/internal/asset"
)

// Subscriber receives catalog events. Callbacks run while the catalog is
// locked: they must not block and must not call back into the catalog or the
// service that owns it.
type Subscriber interface {
	OnAssetsAdded(assets []asset.Asset)
	OnAssetsModified(assets []asset.Asset)
	OnAssetsRemoved(ids []asset.ID)
	OnThumbnailReady(id asset.ID, data []byte)
	OnPreviewReady(id asset.ID, data []byte)
	OnFailure(id asset.ID, variant asset.Variant, err error)
}

// Subscribers fans events out to every subscriber in order.
type Subscribers []Subscriber

var _ Subscriber = Subscribers(nil)

func (s Subscribers) OnAssetsAdded(assets []asset.Asset) {
	for _, sub := range s {
		sub.OnAssetsAdded(assets)
	}
}

func (s Subscribers) OnAssetsModified(assets []asset.Asset) {
	for _, sub := range s {
		sub.OnAssetsModified(assets)
	}
}

func (s Subscribers) OnAssetsRemoved(ids []asset.ID) {
	for _, sub := range s {
		sub.OnAssetsRemoved(ids)
	}
}

func (s Subscribers) OnThumbnailReady(id asset.ID, data []byte) {
	for _, sub := range s {
		sub.OnThumbnailReady(id, data)
	}
}

func (s Subscribers) OnPreviewReady(id asset.ID, data []byte) {
	for _, sub := range s {
		sub.OnPreviewReady(id, data)
	}
}

func (s Subscribers) OnFailure(id asset.ID, variant asset.Variant, err error) {
	for _, sub := range s {
		sub.OnFailure(id, variant, err)
	}
}

// Funcs adapts optional functions to a Subscriber. Nil fields are skipped.
type Funcs struct {
	AssetsAdded    func([]asset.Asset)
	AssetsModified func([]asset.Asset)
	AssetsRemoved  func([]asset.ID)
	ThumbnailReady func(asset.ID, []byte)
	PreviewReady   func(asset.ID, []byte)
	Failure        func(asset.ID, asset.Variant, error)
}

var _ Subscriber = Funcs{}

func (f Funcs) OnAssetsAdded(assets []asset.Asset) {
	if f.AssetsAdded != nil {
		f.AssetsAdded(assets)
	}
}

func (f Funcs) OnAssetsModified(assets []asset.Asset) {
	if f.AssetsModified != nil {
		f.AssetsModified(assets)
	}
}

func (f Funcs) OnAssetsRemoved(ids []asset.ID) {
	if f.AssetsRemoved != nil {
		f.AssetsRemoved(ids)
	}
}

func (f Funcs) OnThumbnailReady(id asset.ID, data []byte) {
	if f.ThumbnailReady != nil {
		f.ThumbnailReady(id, data)
	}
}

func (f Funcs) OnPreviewReady(id asset.ID, data []byte) {
	if f.PreviewReady != nil {
		f.PreviewReady(id, data)
	}
}

func (f Funcs) OnFailure(id asset.ID, variant asset.Variant, err error) {
	if f.Failure != nil {
		f.Failure(id, variant, err)
	}
}
