package ports

import "context"

type Mounter interface {
	Mount(ctx context.Context, force bool) error
	Unmount(ctx context.Context) error
	MountPoint() string
	Mounted() bool
}
