package internal

type walker interface {
	walk()
}

type Runner interface {
	walker
	Run()
}

type dog struct{}

func (d dog) walk() {}
func (d dog) Run()  {}
