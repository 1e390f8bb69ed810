package landing

// Template is a canned starting point shown on the landing page
type Template struct {
	ID          string
	Label       string
	Description string
	Icon        string
	Prompt      string
	Gradient    string
	Featured    bool
}

// Templates is the compiled-in template catalog
var Templates = []*Template{
	{
		ID:          "webapp",
		Label:       "Web Application",
		Icon:        "globe",
		Description: "Full-stack web applications",
		Prompt:      "Create a modern web application with user authentication, database integration, and responsive design",
		Gradient:    "from-blue-500 to-cyan-500",
		Featured:    true,
	},
	{
		ID:          "mobile",
		Label:       "Mobile App",
		Icon:        "smartphone",
		Description: "Mobile-first experiences",
		Prompt:      "Build a mobile-responsive app with touch interfaces, progressive web app features, and offline capabilities",
		Gradient:    "from-purple-500 to-pink-500",
		Featured:    true,
	},
	{
		ID:          "api",
		Label:       "API & Backend",
		Icon:        "database",
		Description: "Server-side applications",
		Prompt:      "Create a RESTful API with database connections, authentication, and comprehensive endpoints",
		Gradient:    "from-green-500 to-emerald-500",
		Featured:    true,
	},
	{
		ID:          "dashboard",
		Label:       "Analytics Dashboard",
		Icon:        "trending-up",
		Description: "Data visualization",
		Prompt:      "Build an analytics dashboard with real-time charts, data tables, and interactive visualizations",
		Gradient:    "from-orange-500 to-red-500",
	},
	{
		ID:          "ecommerce",
		Label:       "E-commerce Store",
		Icon:        "briefcase",
		Description: "Online marketplace",
		Prompt:      "Create an e-commerce platform with product catalog, shopping cart, and payment integration",
		Gradient:    "from-indigo-500 to-purple-500",
	},
	{
		ID:          "portfolio",
		Label:       "Portfolio Site",
		Icon:        "user",
		Description: "Personal showcase",
		Prompt:      "Build a professional portfolio website showcasing projects, skills, and experience with elegant design",
		Gradient:    "from-teal-500 to-blue-500",
	},
}

// QuickStarters are one-line prompts offered under the input
var QuickStarters = []string{
	"Landing page for a SaaS product",
	"Todo app with real-time sync",
	"Social media dashboard",
	"Weather application",
	"Blog with CMS",
	"Calculator app",
	"Chat application",
	"Image gallery",
}

// shownStarters is how many quick starters are rendered
const shownStarters = 4

// FindTemplate returns the template with the given id, or nil
func FindTemplate(id string) *Template {
	for _, t := range Templates {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Featured returns the templates shown in the gallery
func Featured() []*Template {
	var result []*Template
	for _, t := range Templates {
		if t.Featured {
			result = append(result, t)
		}
	}
	return result
}
