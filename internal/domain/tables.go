package domain

var Tables = []interface{}{
	&ProductType{},
	&Carrier{},
	&Product{},
}
