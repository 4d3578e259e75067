package models

// All lists the models in dependency order for AutoMigrate.
func All() []any {
	return []any{&Role{}, &Admin{}, &Category{}, &Product{}, &ProductImage{}}
}
