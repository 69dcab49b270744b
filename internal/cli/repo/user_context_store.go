package repo

// UserContextStore абстракция для хранения контекста пользователя (последний логин).
type UserContextStore interface {
	SaveLogin(login string) error
	LoadLogin() (string, error)
}

// DeviceStore хранит идентификатор установки клиента. Им сервер адресует события смены токена.
type DeviceStore interface {
	// DeviceID возвращает сохранённый идентификатор, создавая его при первом вызове.
	DeviceID() (string, error)
}
