package seeders

// demoMembers - участники для локальной проверки переноса.
// Пустой пароль - строка в member_passwords не создаётся.
var demoMembers = []struct {
	UserID   string
	FullName string
	Email    string
	Password string
}{
	{UserID: "akelly", FullName: "Anne Kelly", Email: "akelly@example.org", Password: "akelly-secret"},
	{UserID: "jdoe", FullName: "John Q. Doe", Email: "jdoe@example.org", Password: "jdoe-secret"},
	{UserID: "prince", FullName: "Prince", Email: "", Password: "purple-rain"},
	{UserID: "nopass", FullName: "No Password", Email: "nopass@example.org", Password: ""},
	{UserID: "mvanrossum", FullName: "Maria van Rossum", Email: "maria@example.org", Password: "maria-secret"},
}
