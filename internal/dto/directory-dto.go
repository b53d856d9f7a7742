package dto

// DirectoryEntryDTO - запись, которую синхронизатор создаёт в каталоге.
type DirectoryEntryDTO struct {
	DN         string
	Attributes map[string][]string
}

// DirectoryMatchDTO - найденная при поиске запись (нужен только факт существования и DN).
type DirectoryMatchDTO struct {
	DN  string
	UID string
}
