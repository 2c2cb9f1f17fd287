package dialect

type TiDB struct {
	*MySQL
}

func NewTiDBDialect() Dialect {
	return &TiDB{
		MySQL: NewMySQLDialect().(*MySQL),
	}
}

func (t *TiDB) Name() string { return "tidb" }

func (t *TiDB) SupportsVector() bool {
	return true
}

var tidbVectorFuncs = map[Metric]string{
	L2:           "VEC_L2_DISTANCE",
	Cosine:       "VEC_COSINE_DISTANCE",
	InnerProduct: "VEC_NEGATIVE_INNER_PRODUCT",
}

func (t *TiDB) VectorDistance(m Metric) (VectorForm, bool) {
	fn, ok := tidbVectorFuncs[m]
	return VectorForm{Function: fn}, ok
}
