package dao

type Parameter struct {
	Name  string
	Value interface{}
}
