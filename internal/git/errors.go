package git

import "errors"

// ErrClone indicates the hosting repository could not be cloned.
var ErrClone = errors.New("blogpress: clone error")
