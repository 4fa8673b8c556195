package metrics

/*
Labels and so on for metrics used in snapdiff.
*/

const (
	LabelCategory = "category"
	LabelSuccess  = "success"

	// Values of LabelCategory which aren't entity categories
	CategoryConfig = "config"
	CategoryTotal  = "total"
)
