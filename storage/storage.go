package storage

var _storage Storage = noopStorage{}

// Storage is provided by the host app (UserDefaults/SharedPreferences/
// localStorage) and used for small UI prefs like the recent meeting code.
type Storage interface {
	GetString(key string) string
	SetString(key string, value string)
	Delete(key string)
}

func Set(s Storage) {
	_storage = s
}

func Get() Storage {
	return _storage
}

type noopStorage struct{}

func (noopStorage) GetString(string) string  { return "" }
func (noopStorage) SetString(string, string) {}
func (noopStorage) Delete(string)            {}
