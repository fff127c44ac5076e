// camera-preview - preview camera pipelines running on a depth camera
//  Copyright (C) 2021, The Cacophony Project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package cameradController

import (
	"errors"
	"testing"

	"github.com/godbus/dbus"
	"github.com/stretchr/testify/assert"
)

type fakeObj struct {
	dbus.BusObject
	method string
	args   []interface{}
	err    error
}

func (o *fakeObj) Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call {
	o.method = method
	o.args = args
	return &dbus.Call{Err: o.err}
}

func useObj(t *testing.T, obj *fakeObj) {
	orig := getDbusObj
	getDbusObj = func() (dbus.BusObject, error) { return obj, nil }
	t.Cleanup(func() { getDbusObj = orig })
}

func TestCalls(t *testing.T) {
	obj := new(fakeObj)
	useObj(t, obj)

	assert.NoError(t, SetAutoFFC(false))
	assert.Equal(t, "org.cacophony.camerad.SetAutoFFC", obj.method)
	assert.Equal(t, []interface{}{false}, obj.args)

	assert.NoError(t, RunFFC())
	assert.Equal(t, "org.cacophony.camerad.RunFFC", obj.method)
	assert.Empty(t, obj.args)
}

func TestErrorsNameTheMethod(t *testing.T) {
	cause := errors.New("no camera available")
	useObj(t, &fakeObj{err: cause})

	err := RunFFC()
	assert.EqualError(t, err, "camerad RunFFC: no camera available")
	assert.True(t, errors.Is(err, cause))
}
