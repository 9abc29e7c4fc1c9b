package assets

import "github.com/Algor1tm/Athena-sub002/engine/assets/loaders"

type Loader interface {
	// params is loader specific, e.g. *metadata.ImageResourceParams for images.
	Load(path string, params interface{}) (*loaders.Resource, error)
	Unload(*loaders.Resource) error
}
