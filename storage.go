package meet

import "github.com/classytamil/Go-Meet/storage"

type PublicStorage interface {
	storage.Storage
}

func SetStorage(s PublicStorage) {
	storage.Set(s)
}
