package hashkv

import "sync"

var iterPool = &sync.Pool{
	New: func() any {
		return new(Iterator)
	},
}

var objIterPool = &sync.Pool{
	New: func() any {
		return new(ObjectIterator)
	},
}
