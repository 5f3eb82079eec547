package mongo

const (
	defaultStore = "speakhw"
	objectTable  = "objects"
)

var indexData = []IndexData{
	newIndexData(objectTable, "key", true)}
