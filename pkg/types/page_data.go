package types

type NavbarData struct {
	IsAuthenticated bool
	UserID          string
	UserEmail       string
	Role            UserRole
}

type NavbarDataSetter interface {
	SetNavbarData(data NavbarData)
}

type BasePageData struct {
	Title  string
	Navbar NavbarData
}

func (d *BasePageData) SetNavbarData(data NavbarData) {
	d.Navbar = data
}

type ProjectCard struct {
	Project  *Project
	Raised   float64
	Progress int
	HasGoal  bool
}

type HomePageData struct {
	BasePageData
	Notice   string
	Error    string
	Projects []*ProjectCard
}

type ProjectDetailPageData struct {
	BasePageData
	Card   *ProjectCard
	Notice string
	Error  string
}

type LoginPageData struct {
	BasePageData
	Message string
	Error   string
	Email   string
}

type DonorDashboardPageData struct {
	BasePageData
	Stats  *DonationStats
	Notice string
	Error  string
}

type BeneficiaryListItem struct {
	Beneficiary    *Beneficiary
	Headquarter    string
	LastEvaluation *Evaluation
	PhotoURL       string
}

type BeneficiaryListPageData struct {
	BasePageData
	Items  []*BeneficiaryListItem
	Notice string
	Error  string
}

type BeneficiaryFormPageData struct {
	BasePageData
	ID           string
	Form         *BeneficiaryForm
	Headquarters []*Headquarter
	Evaluations  []*Evaluation
	PhotoURL     string
	FieldErrors  map[string]string
	Notice       string
	Error        string
}

type ProjectAdminRow struct {
	Project       *Project
	Raised        float64
	Progress      int
	Beneficiaries int
}

type ProjectsAdminPageData struct {
	BasePageData
	Rows         []*ProjectAdminRow
	Headquarters []*Headquarter
	FieldErrors  map[string]string
	Notice       string
	Error        string
}

type HeadquartersAdminPageData struct {
	BasePageData
	Headquarters []*Headquarter
	Directors    []*User
	FieldErrors  map[string]string
	Notice       string
	Error        string
}
