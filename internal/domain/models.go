package domain

// Models 参与 AutoMigrate 的全部表
func Models() []any {
	return []any{
		&User{},
		&Product{},
		&ProductEnrollment{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
	}
}
