package buffer_test

import (
	"fmt"

	"github.com/cwbudde/algo-eeg/dsp/buffer"
)

func ExampleRing() {
	r := buffer.NewRing(3)
	for i := 1; i <= 5; i++ {
		r.Push(float64(i))
	}

	fmt.Println(r.Len(), r.Samples())

	// Output:
	// 3 [3 4 5]
}

func ExampleRing_Padded() {
	r := buffer.NewRing(4)
	r.Push(7)

	fmt.Println(r.Padded())

	// Output:
	// [0 0 0 7]
}
